package extractors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quiet() Option {
	return WithLogger(quietLogger())
}

func upper() Extractor {
	return ExtractorFunc(func(s string) (string, error) { return strings.ToUpper(s), nil })
}

func suffix(x string) Extractor {
	return ExtractorFunc(func(s string) (string, error) { return s + x, nil })
}

func failing() Extractor {
	return ExtractorFunc(func(string) (string, error) { return "", errors.New("boom") })
}

// notListable hides the ExtractList method of the wrapped extractor.
type notListable struct{ Extractor }

func TestAsString_FoldsInConfigurationOrder(t *testing.T) {
	out, err := On("a", quiet()).
		Extract(suffix("b")).
		With(upper()).
		With(suffix("c")).
		AsString()
	require.NoError(t, err)
	assert.Equal(t, "ABc", out)
}

func TestAsString_Regex(t *testing.T) {
	out, err := On("hello 42 world", quiet()).Extract(Regex(`\d+`)).AsString()
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestAsString_NoDefaultField(t *testing.T) {
	_, err := On("doc", quiet()).ExtractField("a", upper()).AsString()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAsString_ExtractionFailureIsFatal(t *testing.T) {
	_, err := On("doc", quiet()).Extract(upper()).With(failing()).AsString()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, DefaultField, fe.Field)
	assert.Equal(t, "DOC", fe.Value)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Step)
}

func TestWith_BeforeAnyField(t *testing.T) {
	for _, doc := range []string{"", "x", "<p>hi</p>"} {
		s := On(doc, quiet()).With(upper())
		assert.ErrorIs(t, s.Err(), ErrConfiguration, "document %q", doc)
		assert.Empty(t, s.Fields())
	}
}

func TestExtractField_Nil(t *testing.T) {
	s := On("x", quiet()).ExtractField("a", nil)
	assert.ErrorIs(t, s.Err(), ErrConfiguration)
	assert.Empty(t, s.Fields())
}

func TestExtractField_EmptyNameIsDefault(t *testing.T) {
	out, err := On("x", quiet()).ExtractField("", upper()).AsString()
	require.NoError(t, err)
	assert.Equal(t, "X", out)
}

func TestWith_FollowsLastNamedField(t *testing.T) {
	s := On("x", quiet()).
		ExtractField("a", upper()).
		ExtractField("b", suffix("1")).
		With(suffix("2")).
		ExtractField("a", suffix("3")).
		With(suffix("4"))

	m, err := s.AsMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "X34", "b": "x12"}, m)
}

func TestSplit_NotListableKeepsPriorState(t *testing.T) {
	doc := "<ul><li>1</li><li>2</li></ul>"
	s := On(doc, quiet()).Split(CSS("li"))
	require.NoError(t, s.Err())
	before := s.Records()

	s.Split(notListable{CSS("li")})
	assert.ErrorIs(t, s.Err(), ErrConfiguration)
	assert.Equal(t, before, s.Records())

	s2 := On(doc, quiet()).Split(Range("0:3"))
	assert.ErrorIs(t, s2.Err(), ErrConfiguration)
	assert.Nil(t, s2.Records())
}

func TestSplit_TableRows(t *testing.T) {
	doc := "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>"
	want := []map[string]string{
		{"first": "a", "second": "b"},
		{"first": "c", "second": "d"},
	}

	byCSS, err := On(doc, quiet()).
		Split(CSS("tr,0,html")).
		ExtractField("first", CSS("td")).
		ExtractField("second", CSS("td,1")).
		AsMapList()
	require.NoError(t, err)
	assert.Equal(t, want, byCSS)

	byXPath, err := On(doc, quiet()).
		Split(XPath("//tr,0,html")).
		ExtractField("first", XPath("//td")).
		ExtractField("second", XPath("//td,1")).
		AsMapList()
	require.NoError(t, err)
	assert.Equal(t, want, byXPath)
}

func TestSession_ClearErrRestoresPriorSplit(t *testing.T) {
	s := On("<ul><li>1</li><li>2</li></ul>", quiet()).
		Split(CSS("li")).
		ExtractField("val", CSS("."))
	s.Split(Range("0:3"))

	_, err := s.AsMapList()
	require.ErrorIs(t, err, ErrConfiguration)

	assert.ErrorIs(t, s.ClearErr(), ErrConfiguration)
	assert.NoError(t, s.Err())
	assert.NoError(t, s.ClearErr())

	list, err := s.AsMapList()
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"val": "1"}, {"val": "2"}}, list)
}

func TestSplit_Overwrites(t *testing.T) {
	s := On("a1 b2 c3", quiet()).
		Split(Regex(`\d`)).
		Split(Regex(`[a-z]`))
	require.NoError(t, s.Err())
	assert.Equal(t, []string{"a", "b", "c"}, s.Records())
}

func TestSplit_FailureRecorded(t *testing.T) {
	s := On("{not json", quiet()).Split(JSONPath("$.items[*]"))
	assert.ErrorIs(t, s.Err(), ErrExtraction)
	assert.Nil(t, s.Records())
}

func TestRecordModes_RequireSplit(t *testing.T) {
	sessions := []*Session{
		On("doc", quiet()),
		On("doc", quiet()).ExtractField("a", upper()),
		On("doc", quiet()).Extract(upper()).ExtractField("b", failing()),
	}
	for _, s := range sessions {
		_, err := s.AsMapList()
		assert.ErrorIs(t, err, ErrState)
		_, err = s.AsRecords()
		assert.ErrorIs(t, err, ErrState)
		_, err = AsStructList[struct{ A string }](s)
		assert.ErrorIs(t, err, ErrState)
	}
}

func TestAsMap_PartialFailure(t *testing.T) {
	m, err := On("doc", quiet()).
		ExtractField("A", upper()).
		ExtractField("B", failing()).
		AsMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "DOC"}, m)
	assert.NotContains(t, m, "B")
}

func TestAsRecord_FailuresAndOrder(t *testing.T) {
	rec, err := On("doc", quiet()).
		ExtractField("z", upper()).
		ExtractField("broken", suffix("!")).
		With(failing()).
		ExtractField("a", suffix("?")).
		AsRecord()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, rec.Keys())
	require.Len(t, rec.Failures, 1)

	f := rec.Failures[0]
	assert.Equal(t, "broken", f.Field)
	assert.Equal(t, -1, f.Record)
	assert.Equal(t, "doc!", f.Value)
	assert.ErrorIs(t, f, ErrExtraction)

	data, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":"DOC","a":"doc?"}`, string(data))
}

func TestAsMap_DefaultFieldExcluded(t *testing.T) {
	s := On("doc", quiet()).Extract(upper()).ExtractField("named", suffix("!"))
	m, err := s.AsMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"named": "doc!"}, m)

	out, err := s.AsString()
	require.NoError(t, err)
	assert.Equal(t, "DOC", out)
}

func TestAsMapList_SplitScenario(t *testing.T) {
	list, err := On("<ul><li>1</li><li>2</li></ul>", quiet()).
		Split(CSS("li")).
		ExtractField("val", CSS(".")).
		AsMapList()
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{{"val": "1"}, {"val": "2"}}, list)
}

func TestAsRecords_FailuresScopedToRecord(t *testing.T) {
	recs, err := On("a1 b c3", quiet()).
		Split(Regex(`[a-z]\d?`)).
		ExtractField("digit", Regex(`\d`)).
		ExtractField("letter", Regex(`[a-z]`)).
		AsRecords()
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, map[string]string{"digit": "1", "letter": "a"}, recs[0].Map())
	assert.Equal(t, map[string]string{"letter": "b"}, recs[1].Map())
	require.Len(t, recs[1].Failures, 1)
	assert.Equal(t, 1, recs[1].Failures[0].Record)
	assert.ErrorIs(t, recs[1].Failures[0], ErrNoMatch)
	assert.Empty(t, recs[2].Failures)
}

func TestTerminalModes_Idempotent(t *testing.T) {
	s := On("<ul><li>1</li><li>2</li></ul>", quiet()).
		Split(CSS("li")).
		ExtractField("val", CSS(".")).
		ExtractField("bad", CSS("p"))

	first, err := s.AsMapList()
	require.NoError(t, err)
	second, err := s.AsMapList()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	m1, _ := s.AsMap()
	m2, _ := s.AsMap()
	assert.Equal(t, m1, m2)
	assert.Equal(t, []string{"val", "bad"}, s.Fields())
	assert.Equal(t, "<ul><li>1</li><li>2</li></ul>", s.Document())
}

func TestSession_ConfigurationErrorIsSticky(t *testing.T) {
	s := On("doc", quiet()).With(upper()).ExtractField("a", upper())
	require.ErrorIs(t, s.Err(), ErrConfiguration)

	_, err := s.AsMap()
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = s.AsRecord()
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = AsStruct[struct{ A string }](s)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = s.AsMapList()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSession_LogsSkippedFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	_, err := On("doc", WithLogger(log)).ExtractField("b", failing()).AsMap()
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "field skipped")
	assert.Contains(t, out, "field=b")
	assert.Contains(t, out, "boom")
}

func TestSession_ChainIsACopy(t *testing.T) {
	s := On("doc", quiet()).ExtractField("a", upper())
	c, ok := s.Chain("a")
	require.True(t, ok)
	c[0] = failing()

	m, err := s.AsMap()
	require.NoError(t, err)
	assert.Equal(t, "DOC", m["a"])

	_, ok = s.Chain("missing")
	assert.False(t, ok)
}

func TestSession_ConcurrentTerminalCalls(t *testing.T) {
	s := On("<ul><li>1</li><li>2</li></ul>", quiet()).
		Split(CSS("li")).
		ExtractField("val", CSS("."))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := s.AsMapList()
			assert.NoError(t, err)
			assert.Len(t, list, 2)
		}()
	}
	wg.Wait()
}

func TestSession_KindOverride(t *testing.T) {
	assert.Equal(t, KindJSON, On(`{"a":1}`).Kind())
	assert.Equal(t, KindText, On(`{"a":1}`, WithKind(KindText)).Kind())
}
