package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"noteify/internal/models"
	"noteify/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noteFixture struct {
	db    *gorm.DB
	root  string
	notes *NoteService
}

func newNoteFixture(t *testing.T, autoApprove bool) *noteFixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	root := t.TempDir()
	up := NewUploader(NewDiskStorage(root))
	return &noteFixture{db: gdb, root: root, notes: NewNoteService(gdb, up, autoApprove, zap.NewNop())}
}

func TestNoteCreateThenList(t *testing.T) {
	f := newNoteFixture(t, false)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	note, err := f.notes.Create(ctx, bob, NoteInput{Title: "Lecture 1", Course: "CS101", Type: "notes", Year: "2024"},
		testutil.FileHeader(t, "lecture1.pdf", "application/pdf", []byte("%PDF-1.4 lecture")))
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusPending, note.Status)

	list, err := f.notes.List(ctx, bob, NoteFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, note.ID, list[0].ID)
	assert.Equal(t, "bob", list[0].AuthorUsername)
	assert.True(t, NewDiskStorage(f.root).Exists(ctx, list[0].FilePath))
}

func TestNoteCreateValidatesBeforeWriting(t *testing.T) {
	f := newNoteFixture(t, false)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)
	file := testutil.FileHeader(t, "a.pdf", "application/pdf", []byte("%PDF"))

	_, err := f.notes.Create(ctx, bob, NoteInput{Course: "CS101"}, file)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)

	_, err = f.notes.Create(ctx, bob, NoteInput{Title: "x", Course: "CS101", Type: "novel"}, file)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "type", verr.Field)

	assert.Equal(t, 0, countFiles(t, f.root))
}

func TestNoteCreateOversizeWritesNothing(t *testing.T) {
	f := newNoteFixture(t, false)
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	big := bytes.Repeat([]byte("x"), int(NotePolicy.MaxSize)+1)
	_, err := f.notes.Create(context.Background(), bob, NoteInput{Title: "Huge", Course: "CS101"},
		testutil.FileHeader(t, "huge.pdf", "application/pdf", big))
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Equal(t, 0, countFiles(t, f.root))

	var count int64
	f.db.Model(&models.Note{}).Count(&count)
	assert.Zero(t, count)
}

func TestNoteCreateDisallowedTypeWritesNothing(t *testing.T) {
	f := newNoteFixture(t, false)
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	_, err := f.notes.Create(context.Background(), bob, NoteInput{Title: "Pic", Course: "CS101"},
		testutil.FileHeader(t, "pic.png", "image/png", []byte("\x89PNG")))
	assert.True(t, errors.Is(err, ErrUnsupportedType))
	assert.Equal(t, 0, countFiles(t, f.root))
}

func TestNoteVisibility(t *testing.T) {
	f := newNoteFixture(t, false)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)
	carol := testutil.CreateUser(t, f.db, "carol", "secret1", models.RoleUser)
	admin := testutil.CreateUser(t, f.db, "root", "secret1", models.RoleAdmin)

	pending, err := f.notes.Create(ctx, bob, NoteInput{Title: "Draft", Course: "CS101"},
		testutil.FileHeader(t, "draft.pdf", "application/pdf", []byte("%PDF")))
	require.NoError(t, err)
	approved, err := f.notes.Create(ctx, admin, NoteInput{Title: "Official", Course: "CS101"},
		testutil.FileHeader(t, "official.pdf", "application/pdf", []byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusApproved, approved.Status)

	anon, err := f.notes.List(ctx, nil, NoteFilter{})
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, approved.ID, anon[0].ID)

	other, err := f.notes.List(ctx, carol, NoteFilter{})
	require.NoError(t, err)
	assert.Len(t, other, 1)

	own, err := f.notes.List(ctx, bob, NoteFilter{})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	all, err := f.notes.List(ctx, admin, NoteFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, pending.ID, all[0].ID)

	_, err = f.notes.Get(ctx, carol, pending.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.notes.List(ctx, admin, NoteFilter{Status: "lost"})
	assert.Error(t, err)
}

func TestNoteFilters(t *testing.T) {
	f := newNoteFixture(t, true)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	inputs := []NoteInput{
		{Title: "Recursion basics", Course: "CS101", Type: "notes", Year: "2023"},
		{Title: "Exam 2023", Course: "CS101", Type: "pastpaper", Year: "2023", Description: "final exam"},
		{Title: "Linear algebra", Course: "MA201", Type: "tutorial", Year: "2024"},
	}
	for _, in := range inputs {
		_, err := f.notes.Create(ctx, bob, in, testutil.FileHeader(t, in.Title+".pdf", "application/pdf", []byte("%PDF")))
		require.NoError(t, err)
	}

	cs, _ := f.notes.List(ctx, nil, NoteFilter{Course: "CS101"})
	assert.Len(t, cs, 2)
	papers, _ := f.notes.List(ctx, nil, NoteFilter{Type: "pastpaper"})
	assert.Len(t, papers, 1)
	y2024, _ := f.notes.List(ctx, nil, NoteFilter{Year: 2024})
	assert.Len(t, y2024, 1)
	search, _ := f.notes.List(ctx, nil, NoteFilter{Query: "FINAL"})
	require.Len(t, search, 1)
	assert.Equal(t, "Exam 2023", search[0].Title)

	all, _ := f.notes.List(ctx, nil, NoteFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, "Linear algebra", all[0].Title)
}

func TestNoteDeleteRemovesRowAndFile(t *testing.T) {
	f := newNoteFixture(t, true)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	note, err := f.notes.Create(ctx, bob, NoteInput{Title: "Gone soon", Course: "CS101"},
		testutil.FileHeader(t, "gone.pdf", "application/pdf", []byte("%PDF")))
	require.NoError(t, err)
	require.Equal(t, 1, countFiles(t, f.root))

	require.NoError(t, f.notes.Delete(ctx, note.ID))

	_, err = f.notes.Get(ctx, bob, note.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, countFiles(t, f.root))

	assert.True(t, errors.Is(f.notes.Delete(ctx, note.ID), ErrNotFound))
}

func TestNoteDeleteToleratesMissingFile(t *testing.T) {
	f := newNoteFixture(t, true)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	note, err := f.notes.Create(ctx, bob, NoteInput{Title: "Orphan", Course: "CS101"},
		testutil.FileHeader(t, "orphan.pdf", "application/pdf", []byte("%PDF")))
	require.NoError(t, err)
	require.NoError(t, NewDiskStorage(f.root).Remove(ctx, note.FilePath))

	assert.NoError(t, f.notes.Delete(ctx, note.ID))
}

func TestNoteModerate(t *testing.T) {
	f := newNoteFixture(t, false)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	note, err := f.notes.Create(ctx, bob, NoteInput{Title: "Review me", Course: "CS101"},
		testutil.FileHeader(t, "r.pdf", "application/pdf", []byte("%PDF")))
	require.NoError(t, err)

	updated, err := f.notes.Moderate(ctx, note.ID, "approve")
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusApproved, updated.Status)

	updated, err = f.notes.Moderate(ctx, note.ID, "reject")
	require.NoError(t, err)
	assert.Equal(t, models.NoteStatusRejected, updated.Status)

	_, err = f.notes.Moderate(ctx, note.ID, "publish")
	assert.True(t, errors.Is(err, ErrInvalidAction))
	_, err = f.notes.Moderate(ctx, 9999, "approve")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNoteDownloadCountsAndStreams(t *testing.T) {
	f := newNoteFixture(t, true)
	ctx := context.Background()
	bob := testutil.CreateUser(t, f.db, "bob", "secret1", models.RoleUser)

	note, err := f.notes.Create(ctx, bob, NoteInput{Title: "Read me", Course: "CS101"},
		testutil.FileHeader(t, "read.pdf", "application/pdf", []byte("%PDF body")))
	require.NoError(t, err)
	require.NoError(t, f.notes.RecordView(ctx, note.ID))

	_, rc, err := f.notes.OpenFile(ctx, nil, note.ID)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF body", string(data))

	got, err := f.notes.Get(ctx, nil, note.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)
	assert.Equal(t, 1, got.Downloads)
}
