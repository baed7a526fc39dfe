package events

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_WarningsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	h.Emit(SeedIncreased{PackageName: "analytics", SeedName: "countries"})

	assert.NoError(t, h.Err(), "warnings do not accumulate in relaxed mode")
	assert.Contains(t, buf.String(), "SeedIncreased")
	assert.Contains(t, buf.String(), "analytics.countries")
}

func TestHandler_StrictModeEscalatesWarnings(t *testing.T) {
	h := NewHandler(nil, true)

	h.Emit(SeedIncreased{PackageName: "analytics", SeedName: "countries"})
	h.Emit(UnusedResourceConfigPath{UnusedConfigPaths: []string{"models.analytics.missing"}})

	err := h.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SeedIncreased")
	assert.Contains(t, err.Error(), "UnusedResourceConfigPath")
}

func TestHandler_ErrorsAlwaysAccumulate(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)), false)

	h.Emit(InvalidProject{Path: "pkgs/broken", Reason: "no project definition found"})

	err := h.Err()
	require.Error(t, err)
	var eventErr *EventError
	require.ErrorAs(t, err, &eventErr)
	assert.Equal(t, "InvalidProject", eventErr.Event.Name())
	assert.Empty(t, buf.String(), "errors accumulate instead of logging")
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Emit(SeedIncreased{PackageName: "a", SeedName: "s"})
	rec.Emit(SeedExceedsLimitSamePath{PackageName: "a", SeedName: "s"})

	assert.Equal(t, []string{"SeedIncreased", "SeedExceedsLimitSamePath"}, rec.Names())
}

func TestUnusedResourceConfigPath_MessageSortsPaths(t *testing.T) {
	e := UnusedResourceConfigPath{UnusedConfigPaths: []string{
		"models.analytics.zulu",
		"models.analytics.alpha",
	}}
	msg := e.Message()
	assert.Contains(t, msg, "2 unused configuration paths")
	assert.Less(t,
		bytes.Index([]byte(msg), []byte("alpha")),
		bytes.Index([]byte(msg), []byte("zulu")),
		"paths are listed sorted")
}
