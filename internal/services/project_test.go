package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-app/apiserver/internal/testutil"
	"github.com/taskhive-app/apiserver/types"
)

type projectFixture struct {
	service *ProjectService
	users   *testutil.UserRepo
	repo    *testutil.ProjectRepo
}

func newProjectFixture() *projectFixture {
	users := testutil.NewUserRepo()
	repo := testutil.NewProjectRepo(users)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &projectFixture{
		service: NewProjectService(repo, users, logger),
		users:   users,
		repo:    repo,
	}
}

func (f *projectFixture) addUser(t *testing.T, email string) types.User {
	t.Helper()
	user, err := f.users.Create(context.Background(), types.User{Name: email, Email: email, Confirmed: true})
	require.NoError(t, err)
	return user
}

func TestCanAccess(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	manager := f.addUser(t, "manager@x.com")
	member := f.addUser(t, "member@x.com")
	outsider := f.addUser(t, "outsider@x.com")

	project, err := f.service.Create(ctx, manager.ID, types.Project{
		ProjectName: "Sitio web",
		ClientName:  "ACME",
		Description: "Rediseño",
	})
	require.NoError(t, err)

	require.NoError(t, f.service.AddMember(ctx, project, member.ID))
	project, err = f.service.Get(ctx, project.ID)
	require.NoError(t, err)

	assert.True(t, f.service.CanAccess(project, manager.ID))
	assert.True(t, f.service.CanAccess(project, member.ID))
	assert.False(t, f.service.CanAccess(project, outsider.ID))
}

func TestGetMissingProject(t *testing.T) {
	f := newProjectFixture()

	_, err := f.service.Get(context.Background(), 99)
	requireKind(t, err, KindNotFound)
}

func TestListForUserScopesByMembership(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	manager := f.addUser(t, "manager@x.com")
	member := f.addUser(t, "member@x.com")
	outsider := f.addUser(t, "outsider@x.com")

	project, err := f.service.Create(ctx, manager.ID, types.Project{ProjectName: "P", ClientName: "C", Description: "D"})
	require.NoError(t, err)
	require.NoError(t, f.service.AddMember(ctx, project, member.ID))

	for _, tc := range []struct {
		userID int
		want   int
	}{
		{manager.ID, 1},
		{member.ID, 1},
		{outsider.ID, 0},
	} {
		projects, err := f.service.ListForUser(ctx, tc.userID)
		require.NoError(t, err)
		assert.Len(t, projects, tc.want)
	}
}

func TestListForUserOrdersByID(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	manager := f.addUser(t, "manager@x.com")
	for _, name := range []string{"Uno", "Dos", "Tres", "Cuatro", "Cinco"} {
		_, err := f.service.Create(ctx, manager.ID, types.Project{ProjectName: name, ClientName: "C", Description: "D"})
		require.NoError(t, err)
	}

	// Listing returns ascending IDs, so the newest project is always last.
	projects, err := f.service.ListForUser(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, projects, 5)
	for i := 1; i < len(projects); i++ {
		assert.Greater(t, projects[i].ID, projects[i-1].ID)
	}
	assert.Equal(t, "Cinco", projects[len(projects)-1].ProjectName)
}

func TestAddMember(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	manager := f.addUser(t, "manager@x.com")
	member := f.addUser(t, "member@x.com")

	project, err := f.service.Create(ctx, manager.ID, types.Project{ProjectName: "P", ClientName: "C", Description: "D"})
	require.NoError(t, err)

	err = f.service.AddMember(ctx, project, 99)
	requireKind(t, err, KindNotFound)

	require.NoError(t, f.service.AddMember(ctx, project, member.ID))

	project, err = f.service.Get(ctx, project.ID)
	require.NoError(t, err)
	err = f.service.AddMember(ctx, project, member.ID)
	requireKind(t, err, KindConflict)
}

func TestRemoveMember(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	manager := f.addUser(t, "manager@x.com")
	member := f.addUser(t, "member@x.com")

	project, err := f.service.Create(ctx, manager.ID, types.Project{ProjectName: "P", ClientName: "C", Description: "D"})
	require.NoError(t, err)
	require.NoError(t, f.service.AddMember(ctx, project, member.ID))

	require.NoError(t, f.service.RemoveMember(ctx, project.ID, member.ID))
	err = f.service.RemoveMember(ctx, project.ID, member.ID)
	requireKind(t, err, KindNotFound)
}

func TestFindUserByEmail(t *testing.T) {
	f := newProjectFixture()
	ctx := context.Background()

	f.addUser(t, "member@x.com")

	user, err := f.service.FindUserByEmail(ctx, "member@x.com")
	require.NoError(t, err)
	assert.Equal(t, "member@x.com", user.Email)

	_, err = f.service.FindUserByEmail(ctx, "nadie@x.com")
	requireKind(t, err, KindNotFound)
}
