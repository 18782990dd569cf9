package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/watcher"
)

type WatcherTestSuite struct {
	suite.Suite
	dir     string
	watcher *watcher.Watcher
	cancel  context.CancelFunc
}

func (s *WatcherTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	w, err := watcher.New(&watcher.Config{
		Roots:    []string{s.dir},
		Debounce: 20 * time.Millisecond,
	})
	s.Require().NoError(err)
	s.watcher = w

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.Require().NoError(w.Start(ctx))
}

func (s *WatcherTestSuite) TearDownTest() {
	s.cancel()
	_ = s.watcher.Stop()
}

func TestWatcherSuite(t *testing.T) {
	suite.Run(t, new(WatcherTestSuite))
}

func (s *WatcherTestSuite) write(path, content string) {
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
}

func (s *WatcherTestSuite) next(timeout time.Duration) (string, bool) {
	select {
	case path := <-s.watcher.Changes():
		return path, true
	case <-time.After(timeout):
		return "", false
	}
}

func (s *WatcherTestSuite) TestReportsChangedXML() {
	path := filepath.Join(s.dir, "spells.xml")
	s.write(path, "<compendium/>")

	got, ok := s.next(2 * time.Second)
	s.Require().True(ok)
	s.Equal(path, got)
}

func (s *WatcherTestSuite) TestIgnoresOtherFilesAndUnchangedContent() {
	s.write(filepath.Join(s.dir, "notes.txt"), "hello")
	_, ok := s.next(200 * time.Millisecond)
	s.False(ok)

	path := filepath.Join(s.dir, "items.xml")
	s.write(path, "<compendium/>")
	_, ok = s.next(2 * time.Second)
	s.Require().True(ok)

	s.write(path, "<compendium/>")
	_, ok = s.next(200 * time.Millisecond)
	s.False(ok)
}

func (s *WatcherTestSuite) TestRememberedContentIsNotReported() {
	path := filepath.Join(s.T().TempDir(), "races.xml")
	s.write(path, "<compendium/>")

	w, err := watcher.New(&watcher.Config{Roots: []string{filepath.Dir(path)}, Debounce: 20 * time.Millisecond})
	s.Require().NoError(err)
	w.Remember(path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Require().NoError(w.Start(ctx))
	defer func() { _ = w.Stop() }()

	s.write(path, "<compendium/>")
	select {
	case got := <-w.Changes():
		s.Failf("unexpected change", "got %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func (s *WatcherTestSuite) TestNestedDirectory() {
	nested := filepath.Join(s.dir, "books", "phb")
	s.Require().NoError(os.MkdirAll(nested, 0o755))
	// give the watcher a moment to register the new directories
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(nested, "spells.xml")
	s.write(path, "<compendium><spell/></compendium>")

	got, ok := s.next(2 * time.Second)
	s.Require().True(ok)
	s.Equal(path, got)
}

func (s *WatcherTestSuite) TestConfigValidation() {
	testCases := []struct {
		name string
		cfg  *watcher.Config
	}{
		{name: "nil", cfg: nil},
		{name: "no roots", cfg: &watcher.Config{}},
		{name: "missing root", cfg: &watcher.Config{Roots: []string{filepath.Join(s.dir, "missing")}}},
		{name: "bad pattern", cfg: &watcher.Config{Roots: []string{s.dir}, Patterns: []string{"[x"}}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := watcher.New(tc.cfg)
			s.Error(err)
			s.True(errors.IsInvalidArgument(err))
		})
	}
}
