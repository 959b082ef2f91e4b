package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type layerSummary struct {
	Layer int
	Slots int
	note  string
}

// assertLogMatches will fuzzy match log lines. It checks the time format but ignores the exact
// time, and it expects a match on the filename but not the line number.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	// Use the length of the first string as a weak verification that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, _ := strings.Cut(expectedParts[2], ":")
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])
	if len(actualParts) == 4 {
		return
	}

	// JSON encoding of maps is order dependent; compare as maps.
	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[4]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[4]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newBufferLogger(level Level) (*impl, *bytes.Buffer) {
	notStdout := &bytes.Buffer{}
	return &impl{"", NewAtomicLevelAt(level), true, []Appender{NewWriterAppender(notStdout)}}, notStdout
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, notStdout := newBufferLogger(DEBUG)

	logger.Info("planning step")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:63	planning step`)

	logger.Infof("layer %d of %d", 3, 10)
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:67	layer 3 of 10`)

	logger.Debugw("layer built", "layer", 3, "edges", 4)
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:71	layer built	{"layer":3,"edges":4}`)

	// Private struct fields are not serialized.
	logger.Warnw("summary", "layer", layerSummary{Layer: 1, Slots: 2, note: "hidden"})
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	WARN	logging/impl_test.go:76	summary	{"layer":{"Layer":1,"Slots":2}}`)

	logger.Errorw("unpaired", "key")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	ERROR	logging/impl_test.go:80	unpaired	{"key":"unpaired log key"}`)
}

func TestLevels(t *testing.T) {
	logger, notStdout := newBufferLogger(WARN)

	logger.Debug("dropped")
	logger.Info("dropped")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	logger.Warn("kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	WARN	logging/impl_test.go:92	kept`)

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debug("now kept")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:98	now kept`)
}

func TestDebugModeContext(t *testing.T) {
	logger, notStdout := newBufferLogger(INFO)

	logger.CDebugf(context.Background(), "not in debug mode")
	test.That(t, notStdout.Len(), test.ShouldEqual, 0)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, len(GetName(ctx)), test.ShouldEqual, 6)

	logger.CDebugf(ctx, "debug %s", "mode")
	assertLogMatches(t, notStdout,
		`2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:112	debug mode`)

	named := EnableDebugMode(context.Background(), "planner")
	test.That(t, GetName(named), test.ShouldEqual, "planner")
}

func TestSublogger(t *testing.T) {
	logger := NewBlankLogger("descartes")
	sub := logger.Sublogger("dense")

	obs, observed := NewObservedTestLogger(t)
	test.That(t, obs.GetLevel(), test.ShouldEqual, DEBUG)
	obs.Sublogger("sparse").Infow("anchors", "count", 3)
	test.That(t, observed.FilterMessage("anchors").Len(), test.ShouldEqual, 1)
	test.That(t, observed.All()[0].LoggerName, test.ShouldEqual, "sparse")
	test.That(t, obs.Sync(), test.ShouldBeNil)

	test.That(t, sub.(*impl).name, test.ShouldEqual, "descartes.dense")
	test.That(t, sub.GetLevel(), test.ShouldEqual, logger.GetLevel())
}

func TestLevelStrings(t *testing.T) {
	for _, level := range []Level{DEBUG, INFO, WARN, ERROR} {
		parsed, err := LevelFromString(level.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, level)

		data, err := json.Marshal(level)
		test.That(t, err, test.ShouldBeNil)
		var decoded Level
		test.That(t, json.Unmarshal(data, &decoded), test.ShouldBeNil)
		test.That(t, decoded, test.ShouldEqual, level)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoggerRegistry(t *testing.T) {
	logger := NewBlankLogger("registry-test")
	RegisterLogger("registry-test", logger)

	found, ok := LoggerNamed("registry-test")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, found, test.ShouldEqual, logger)

	test.That(t, UpdateLoggerLevel("registry-test", ERROR), test.ShouldBeNil)
	test.That(t, logger.GetLevel(), test.ShouldEqual, ERROR)
	test.That(t, UpdateLoggerLevel("missing", ERROR), test.ShouldNotBeNil)
	test.That(t, GetRegisteredLoggerNames(), test.ShouldContain, "registry-test")
}
