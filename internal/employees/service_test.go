package employees

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/ppekeeper-backend/internal/assignments"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ppekeeper-backend/pkg/db/models"
	"github.com/angelmondragon/ppekeeper-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ppekeeper-backend/pkg/errors"
)

type fakeRecorder struct {
	ops []enums.AuditOperation
}

func (f *fakeRecorder) Record(_ context.Context, op enums.AuditOperation, _ string) {
	f.ops = append(f.ops, op)
}

type testEnv struct {
	svc         Service
	assignments assignments.Repository
	conn        *gorm.DB
	recorder    *fakeRecorder
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	client, conn := dbtest.Client(t)
	assignmentRepo := assignments.NewRepository(conn)
	recorder := &fakeRecorder{}
	svc, err := NewService(NewRepository(conn), assignmentRepo, recorder, client)
	require.NoError(t, err)
	return testEnv{svc: svc, assignments: assignmentRepo, conn: conn, recorder: recorder}
}

func (e testEnv) assign(t *testing.T, employeeID, categoryName string, kind enums.CategoryKind, code string, active bool) {
	t.Helper()
	category := &models.Category{Name: categoryName, Kind: kind}
	require.NoError(t, e.conn.Create(category).Error)
	row := &models.Assignment{
		EmployeeID: employeeID,
		CategoryID: category.ID,
		ItemCode:   &code,
		IssueDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Active:     active,
	}
	require.NoError(t, e.assignments.Create(context.Background(), row))
}

func TestCreateValidatesAndRejectsDuplicates(t *testing.T) {
	env := newEnv(t)
	svc, recorder := env.svc, env.recorder
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{ID: " E-7 ", Name: " Maria Santos ", Status: enums.EmployeeStatusActive})
	require.NoError(t, err)
	assert.Equal(t, "E-7", created.ID)
	assert.Equal(t, "Maria Santos", created.Name)

	_, err = svc.Create(ctx, Input{ID: "E-7", Name: "Other", Status: enums.EmployeeStatusActive})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, Input{ID: "E-8", Name: "Other", Status: "retired"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, Input{Name: "No Id", Status: enums.EmployeeStatusActive})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	assert.Equal(t, []enums.AuditOperation{enums.AuditOperationAddEmployee}, recorder.ops)
}

func TestUpdateChangesStatusAndLockers(t *testing.T) {
	svc := newEnv(t).svc
	ctx := context.Background()
	_, err := svc.Create(ctx, Input{ID: "E-1", Name: "Ana", Status: enums.EmployeeStatusActive})
	require.NoError(t, err)

	locker := "C-12"
	updated, err := svc.Update(ctx, "E-1", Input{Name: "Ana Cruz", Status: enums.EmployeeStatusSeparated, ClothesLocker1F: &locker})
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", updated.Name)
	assert.Equal(t, enums.EmployeeStatusSeparated, updated.Status)
	require.NotNil(t, updated.ClothesLocker1F)
	assert.Equal(t, "C-12", *updated.ClothesLocker1F)

	_, err = svc.Update(ctx, "missing", Input{Name: "x", Status: enums.EmployeeStatusActive})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteCascadesAssignments(t *testing.T) {
	env := newEnv(t)
	svc := env.svc
	ctx := context.Background()
	_, err := svc.Create(ctx, Input{ID: "E-1", Name: "Ana", Status: enums.EmployeeStatusActive})
	require.NoError(t, err)

	env.assign(t, "E-1", "Suit", enums.CategoryKindGarment, "S-1", true)

	require.NoError(t, svc.Delete(ctx, "E-1"))
	rows, err := env.assignments.ListByEmployee(ctx, "E-1", false)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = svc.Delete(ctx, "E-1")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Contains(t, env.recorder.ops, enums.AuditOperationDeleteEmployee)
}

func TestSearchAndItemCodeLookup(t *testing.T) {
	env := newEnv(t)
	svc := env.svc
	ctx := context.Background()
	for _, in := range []Input{
		{ID: "E-1", Name: "Ana Reyes", Status: enums.EmployeeStatusActive},
		{ID: "E-2", Name: "Ben Ortiz", Status: enums.EmployeeStatusActive},
		{ID: "E-3", Name: "Joanna Lim", Status: enums.EmployeeStatusSeparated},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	found, err := svc.SearchByName(ctx, "ANA")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "E-1", found[0].ID)

	found, err = svc.SearchByName(ctx, "an")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	env.assign(t, "E-2", "Hat", enums.CategoryKindHeadwear, "H-9", false)

	holders, err := svc.FindByItemCode(ctx, "H-9")
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "E-2", holders[0].ID)

	none, err := svc.FindByItemCode(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}
