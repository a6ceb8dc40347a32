// Package testutil provides in-memory fakes for the repository and mailer
// interfaces, mirroring the store semantics: email normalization, the
// unique-email backstop, and token expiry filtering.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskhive-app/apiserver/internal/store"
	"github.com/taskhive-app/apiserver/types"
)

// UserRepo is an in-memory stand-in for store.UserRepository.
type UserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[int]types.User{}}
}

func (r *UserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = normalize(email)
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.Email = normalize(user.Email)
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *UserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Email = normalize(user.Email)
	for _, existing := range r.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return user, nil
}

func (r *UserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TokenRepo is an in-memory stand-in for store.TokenRepository.
type TokenRepo struct {
	mu     sync.Mutex
	nextID int
	tokens map[int]types.Token
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{tokens: map[int]types.Token{}}
}

func (r *TokenRepo) Create(ctx context.Context, token types.Token) (types.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	token.CreatedAt = time.Now()
	token.ExpiresAt = token.CreatedAt.Add(types.TokenTTL)
	r.tokens[token.ID] = token
	return token, nil
}

func (r *TokenRepo) GetByCode(ctx context.Context, code string) (types.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found types.Token
	ok := false
	for _, token := range r.tokens {
		if token.Code != code || !token.ExpiresAt.After(time.Now()) {
			continue
		}
		if !ok || token.CreatedAt.After(found.CreatedAt) {
			found = token
			ok = true
		}
	}
	if !ok {
		return types.Token{}, store.ErrNotFound
	}
	return found, nil
}

func (r *TokenRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.tokens, id)
	return nil
}

// InsertExpired plants a token whose validity window has already passed.
func (r *TokenRepo) InsertExpired(code string, userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.tokens[r.nextID] = types.Token{
		ID:        r.nextID,
		Code:      code,
		UserID:    userID,
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour + types.TokenTTL),
	}
}

func (r *TokenRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// SentMail records one delivered email.
type SentMail struct {
	To   string
	Code string
}

// Mailer records sends instead of delivering them.
type Mailer struct {
	mu            sync.Mutex
	confirmations []SentMail
	resets        []SentMail
}

func (m *Mailer) SendConfirmationCode(ctx context.Context, toEmail, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, SentMail{To: toEmail, Code: code})
	return nil
}

func (m *Mailer) SendPasswordResetCode(ctx context.Context, toEmail, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, SentMail{To: toEmail, Code: code})
	return nil
}

func (m *Mailer) Confirmations() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.confirmations...)
}

func (m *Mailer) Resets() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.resets...)
}

func (m *Mailer) LastConfirmation() SentMail {
	confirmations := m.Confirmations()
	if len(confirmations) == 0 {
		return SentMail{}
	}
	return confirmations[len(confirmations)-1]
}

func (m *Mailer) LastReset() SentMail {
	resets := m.Resets()
	if len(resets) == 0 {
		return SentMail{}
	}
	return resets[len(resets)-1]
}

// ProjectRepo is an in-memory stand-in for store.ProjectRepository.
type ProjectRepo struct {
	mu       sync.Mutex
	nextID   int
	projects map[int]types.Project
	members  map[int]map[int]bool
	users    *UserRepo
}

func NewProjectRepo(users *UserRepo) *ProjectRepo {
	return &ProjectRepo{
		projects: map[int]types.Project{},
		members:  map[int]map[int]bool{},
		users:    users,
	}
}

func (r *ProjectRepo) Create(ctx context.Context, project types.Project) (types.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	project.ID = r.nextID
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	r.projects[project.ID] = project
	r.members[project.ID] = map[int]bool{}
	return project, nil
}

func (r *ProjectRepo) Get(ctx context.Context, id int) (types.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	project.Team = nil
	for userID := range r.members[id] {
		project.Team = append(project.Team, userID)
	}
	return project, nil
}

func (r *ProjectRepo) ListForUser(ctx context.Context, userID int) ([]types.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	projects := []types.Project{}
	for id, project := range r.projects {
		if project.ManagerID == userID || r.members[id][userID] {
			projects = append(projects, project)
		}
	}
	// Same ordering as the store query.
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (r *ProjectRepo) Update(ctx context.Context, project types.Project) (types.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.projects[project.ID]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	existing.ProjectName = project.ProjectName
	existing.ClientName = project.ClientName
	existing.Description = project.Description
	existing.UpdatedAt = time.Now()
	r.projects[project.ID] = existing
	return existing, nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.projects, id)
	delete(r.members, id)
	return nil
}

func (r *ProjectRepo) AddMember(ctx context.Context, projectID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[projectID][userID] {
		return store.ErrDuplicate
	}
	r.members[projectID][userID] = true
	return nil
}

func (r *ProjectRepo) RemoveMember(ctx context.Context, projectID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.members[projectID][userID] {
		return store.ErrNotFound
	}
	delete(r.members[projectID], userID)
	return nil
}

func (r *ProjectRepo) ListMembers(ctx context.Context, projectID int) ([]types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := []types.User{}
	for userID := range r.members[projectID] {
		if user, err := r.users.GetByID(ctx, userID); err == nil {
			members = append(members, user)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

// TaskRepo is an in-memory stand-in for store.TaskRepository.
type TaskRepo struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]types.Task
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: map[int]types.Task{}}
}

func (r *TaskRepo) Create(ctx context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	if task.Status == "" {
		task.Status = types.TaskStatusPending
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID] = task
	return task, nil
}

func (r *TaskRepo) Get(ctx context.Context, id int) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (r *TaskRepo) ListByProject(ctx context.Context, projectID int) ([]types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := []types.Task{}
	for _, task := range r.tasks {
		if task.ProjectID == projectID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, task types.Task) (types.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return types.Task{}, store.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = task
	return task, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *TaskRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
