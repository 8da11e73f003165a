package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/opr-api/internal/models"
	"github.com/noah-isme/opr-api/internal/repository"
	"github.com/noah-isme/opr-api/pkg/filecodec"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func samplePDFText() string {
	return "data:application/pdf;base64," + filecodec.Encode(samplePDF)
}

// fakeStore backs the repository fakes with in-memory tables.
type fakeStore struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	events      map[int64]*models.Event
	articles    map[int64]*models.Article
	assignments map[int64]*models.ArticleReviewer
	reviews     []models.Review
	nextID      int64
	failWith    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[int64]*models.User{},
		events:      map[int64]*models.Event{},
		articles:    map[int64]*models.Article{},
		assignments: map[int64]*models.ArticleReviewer{},
		nextID:      100,
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(id int64, name string, role models.UserRole) *models.User {
	u := &models.User{ID: id, Name: name, Email: name + "@example.com", Role: role}
	s.users[id] = u
	return u
}

func (s *fakeStore) addEvent(id int64, end time.Time) *models.Event {
	e := &models.Event{ID: id, Name: "Event", StartDate: end.AddDate(0, 0, -7), EndDate: models.DateOf(end)}
	s.events[id] = e
	return e
}

func (s *fakeStore) addArticle(creatorID, eventID int64) *models.Article {
	a := &models.Article{ID: s.id(), CreatorID: creatorID, EventID: eventID, Name: "Paper A", Description: "d", File: samplePDF}
	s.articles[a.ID] = a
	return a
}

func (s *fakeStore) assign(articleID, reviewerID int64) *models.ArticleReviewer {
	ar := &models.ArticleReviewer{ID: s.id(), ArticleID: articleID, ReviewerID: reviewerID}
	s.assignments[ar.ID] = ar
	return ar
}

func (s *fakeStore) reviewsFor(assignmentID int64) []models.Review {
	out := []models.Review{}
	for _, r := range s.reviews {
		if r.ArticleReviewerID == assignmentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) FindByID(ctx context.Context, id int64) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	u, ok := f.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type fakeEvents struct{ s *fakeStore }

func (f fakeEvents) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

type fakeArticles struct{ s *fakeStore }

func (f fakeArticles) Create(ctx context.Context, article *models.Article) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return f.s.failWith
	}
	article.ID = f.s.id()
	stored := *article
	f.s.articles[article.ID] = &stored
	return nil
}

func (f fakeArticles) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return nil, f.s.failWith
	}
	a, ok := f.s.articles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *a
	if u, ok := f.s.users[a.CreatorID]; ok {
		out.Creator = u.Summary()
	}
	out.Event = f.s.events[a.EventID]
	return &out, nil
}

func (f fakeArticles) GetDetail(ctx context.Context, id int64) (*models.Article, error) {
	article, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	assignments := []models.ArticleReviewer{}
	for _, ar := range f.s.assignments {
		if ar.ArticleID != id {
			continue
		}
		copied := *ar
		copied.Reviewer = f.s.users[ar.ReviewerID].Summary()
		copied.Reviews = f.s.reviewsFor(ar.ID)
		assignments = append(assignments, copied)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	article.ArticleReviewers = assignments
	return article, nil
}

func (f fakeArticles) GetSummary(ctx context.Context, id int64) (*models.Article, error) {
	article, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	article.File = nil
	return article, nil
}

func (f fakeArticles) GetOutline(ctx context.Context, id int64) (*models.Article, error) {
	article, err := f.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	article.File = nil
	for i := range article.ArticleReviewers {
		reviews := make([]models.Review, len(article.ArticleReviewers[i].Reviews))
		for j, r := range article.ArticleReviewers[i].Reviews {
			r.FileSize, r.OriginalFileSize = r.FileBytes(), r.OriginalFileBytes()
			r.File, r.OriginalFile = nil, nil
			reviews[j] = r
		}
		article.ArticleReviewers[i].Reviews = reviews
	}
	return article, nil
}

func (f fakeArticles) ListByCreator(ctx context.Context, creatorID int64) ([]models.ArticleSummary, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.ArticleSummary{}
	for _, a := range f.s.articles {
		if a.CreatorID == creatorID {
			out = append(out, models.ArticleSummary{ID: a.ID, CreatorID: a.CreatorID, EventID: a.EventID, Name: a.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f fakeArticles) UpdateFile(ctx context.Context, id int64, file []byte, updatedAt time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.articles[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.File = file
	a.UpdatedAt = updatedAt
	return nil
}

type fakeAssignments struct{ s *fakeStore }

func (f fakeAssignments) GetByID(ctx context.Context, id int64) (*models.ArticleReviewer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	ar, ok := f.s.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := *ar
	return &out, nil
}

func (f fakeAssignments) Create(ctx context.Context, assignment *models.ArticleReviewer) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, ar := range f.s.assignments {
		if ar.ArticleID == assignment.ArticleID && ar.ReviewerID == assignment.ReviewerID {
			return repository.ErrDuplicate
		}
	}
	assignment.ID = f.s.id()
	stored := *assignment
	f.s.assignments[assignment.ID] = &stored
	return nil
}

func (f fakeAssignments) ListByReviewer(ctx context.Context, reviewerID int64) ([]models.ArticleReviewer, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.ArticleReviewer{}
	for _, ar := range f.s.assignments {
		if ar.ReviewerID != reviewerID {
			continue
		}
		copied := *ar
		if a, ok := f.s.articles[ar.ArticleID]; ok {
			copied.Article = &models.ArticleSummary{ID: a.ID, CreatorID: a.CreatorID, EventID: a.EventID, Name: a.Name}
		}
		copied.Reviews = f.s.reviewsFor(ar.ID)
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeReviews struct{ s *fakeStore }

func (f fakeReviews) Create(ctx context.Context, review *models.Review) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failWith != nil {
		return f.s.failWith
	}
	review.ID = f.s.id()
	f.s.reviews = append(f.s.reviews, *review)
	return nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []interface{}
	err  error
}

func (q *recordingQueue) Enqueue(jobType string, payload interface{}) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, payload)
	return "job-1", nil
}

func claimsFor(id int64, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role, Name: "user"}
}
