package bind

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite_Named(t *testing.T) {
	var missing *string
	q, args, err := Rewrite("INSERT INTO t VALUES (@Name, @Note)", Named, []Param{
		{Name: "Name", Value: "Alice"},
		{Name: "Note", Value: missing},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t VALUES (@Name, @Note)", q)
	assert.Equal(t, []any{sql.Named("Name", "Alice"), sql.Named("Note", nil)}, args)
}

func TestRewrite_Question(t *testing.T) {
	q, args, err := Rewrite("SELECT * FROM t WHERE a = @A OR b = @B OR c = @A", Question, []Param{
		{Name: "A", Value: 1},
		{Name: "B", Value: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? OR b = ? OR c = ?", q)
	assert.Equal(t, []any{1, "two", 1}, args)
}

func TestRewrite_Dollar(t *testing.T) {
	q, args, err := Rewrite("UPDATE t SET a = @A, b = @B WHERE a <> @A", Dollar, []Param{
		{Name: "B", Value: nil},
		{Name: "A", Value: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE a <> $1", q)
	assert.Equal(t, []any{3, nil}, args)
}

func TestRewrite_SkipsQuotedAndComments(t *testing.T) {
	query := `SELECT '@notme', "col@x", ` + "`b@t`" + `, $$ @body $$, $fn$ @x $fn$, @@version -- @c
/* @block */ FROM t WHERE id = @Id`
	q, args, err := Rewrite(query, Question, []Param{{Name: "Id", Value: 9}})
	require.NoError(t, err)
	assert.Equal(t, query[:len(query)-3]+"?", q)
	assert.Equal(t, []any{9}, args)
}

func TestRewrite_ArrayBrackets(t *testing.T) {
	q, args, err := Rewrite("SELECT * FROM t WHERE id = ANY(ARRAY[@A, @B]) AND tags[@I] = 'x'", Dollar, []Param{
		{Name: "A", Value: 1},
		{Name: "B", Value: 2},
		{Name: "I", Value: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id = ANY(ARRAY[$1, $2]) AND tags[$3] = 'x'", q)
	assert.Equal(t, []any{1, 2, 3}, args)

	q, args, err = Rewrite("SELECT j->'$[0]' FROM t WHERE k = @K", Question, []Param{{Name: "K", Value: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT j->'$[0]' FROM t WHERE k = ?", q)
	assert.Equal(t, []any{"a"}, args)
}

func TestRewrite_BackslashEscapes(t *testing.T) {
	q, args, err := Rewrite(`SELECT 'it\'s @x', "a\"@y", @Z`, Question, []Param{{Name: "Z", Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT 'it\'s @x', "a\"@y", ?`, q)
	assert.Equal(t, []any{1}, args)

	// Outside the question style a backslash is an ordinary character.
	q, args, err = Rewrite(`SELECT 'C:\', @Z`, Dollar, []Param{{Name: "Z", Value: 1}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT 'C:\', $1`, q)
	assert.Equal(t, []any{1}, args)
}

func TestRewrite_EscapedQuotes(t *testing.T) {
	q, args, err := Rewrite("SELECT 'it''s @x', @y", Dollar, []Param{{Name: "y", Value: true}})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 'it''s @x', $1", q)
	assert.Equal(t, []any{true}, args)
}

func TestRewrite_NoParams(t *testing.T) {
	q, args, err := Rewrite("SELECT 1", Question, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q)
	assert.Empty(t, args)

	q, args, err = Rewrite("SELECT $1", Dollar, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT $1", q)
	assert.Empty(t, args)
}

func TestRewrite_MissingParam(t *testing.T) {
	_, _, err := Rewrite("SELECT @Missing", Question, []Param{{Name: "Other", Value: 1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingParam)
	assert.Contains(t, err.Error(), "@Missing")
}

func TestRewrite_Unterminated(t *testing.T) {
	for _, q := range []string{
		"SELECT 'open",
		`SELECT "open`,
		"SELECT /* open",
		"SELECT $$ open",
	} {
		_, _, err := Rewrite(q, Question, nil)
		assert.Error(t, err, q)
	}
}

func TestRewrite_FirstDuplicateWins(t *testing.T) {
	_, args, err := Rewrite("SELECT @A", Question, []Param{
		{Name: "A", Value: 1},
		{Name: "A", Value: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{1}, args)
}

func TestStyleFor(t *testing.T) {
	assert.Equal(t, Dollar, StyleFor("pgx"))
	assert.Equal(t, Dollar, StyleFor("postgres"))
	assert.Equal(t, Question, StyleFor("mysql"))
	assert.Equal(t, Named, StyleFor("sqlite"))
	assert.Equal(t, Named, StyleFor("sqlmock"))
}

func TestParseStyle(t *testing.T) {
	for in, want := range map[string]Style{
		"":         Named,
		"named":    Named,
		"Question": Question,
		"dollar":   Dollar,
	} {
		got, err := ParseStyle(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in != "" {
			assert.Equal(t, want.String(), got.String())
		}
	}
	_, err := ParseStyle("colon")
	assert.Error(t, err)
}
