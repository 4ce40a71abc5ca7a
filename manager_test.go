package logmux

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileConfig builds a config with one DEBUG file handler writing plain
// name/level/message lines, the easiest shape to assert against.
func fileConfig(path string) *Config {
	return &Config{
		Root: RootConfig{Level: "DEBUG"},
		Handlers: map[string]HandlerSpec{
			"app_file": {
				Type:     SinkFile,
				Level:    "DEBUG",
				Filename: path,
				Formatter: FormatterSpec{
					Format: "%(name)s %(levelname)s %(message)s",
				},
			},
		},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := strings.TrimRight(string(data), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestModeResolution(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")

	single, err := NewFromConfig(fileConfig(logPath))
	require.NoError(t, err)
	defer single.Close()
	assert.Equal(t, ModeSingleProcess, single.Mode())
	assert.False(t, single.Owner())
	assert.Nil(t, single.Queue())

	owner, err := NewFromConfig(fileConfig(logPath), WithMultiprocessing())
	require.NoError(t, err)
	defer owner.Close()
	assert.Equal(t, ModeOwner, owner.Mode())
	assert.True(t, owner.Owner())
	require.NotNil(t, owner.Queue())
	assert.True(t, owner.listener.Running())

	worker, err := NewFromConfig(fileConfig(logPath), WithMultiprocessing(), WithQueue(owner.Queue()))
	require.NoError(t, err)
	defer worker.Close()
	assert.Equal(t, ModeWorker, worker.Mode())
	assert.False(t, worker.Owner())
	assert.Same(t, owner.Queue(), worker.Queue())
	assert.Nil(t, worker.chain, "workers must not build handlers")
	assert.Nil(t, worker.listener, "workers must not build a listener")
}

func TestNewFromConfigNilConfig(t *testing.T) {
	_, err := NewFromConfig(nil)
	assert.Error(t, err)
}

// TestSingleProcessDelivery runs the synchronous path end to end: five
// records, delivered in emission order
func TestSingleProcessDelivery(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	mgr, err := NewFromConfig(fileConfig(logPath))
	require.NoError(t, err)

	logger := mgr.GetLogger("my_app")
	logger.Debug("starting up")
	logger.Info("Hello, World!")
	logger.Warning("running low")
	logger.Error("request failed")
	logger.Critical("shutting down")
	require.NoError(t, mgr.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 5)
	assert.Equal(t, "my_app DEBUG starting up", lines[0])
	assert.Equal(t, "my_app INFO Hello, World!", lines[1])
	assert.Equal(t, "my_app WARNING running low", lines[2])
	assert.Equal(t, "my_app ERROR request failed", lines[3])
	assert.Equal(t, "my_app CRITICAL shutting down", lines[4])
}

// TestSingleProcessConcurrentProducers hammers the synchronous dispatch path
// from several goroutines through a rotating handler: every record lands
// exactly once, per-producer order holds across the backup chain, and no
// rotated file exceeds the size limit
func TestSingleProcessConcurrentProducers(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := fileConfig(logPath)
	spec := cfg.Handlers["app_file"]
	spec.Type = SinkRotatingFile
	spec.MaxBytes = 4096
	spec.BackupCount = 10
	cfg.Handlers["app_file"] = spec

	mgr, err := NewFromConfig(cfg)
	require.NoError(t, err)

	const producers = 4
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			logger := mgr.GetLogger(fmt.Sprintf("conc-%d", p))
			for i := 0; i < perProducer; i++ {
				logger.Info(fmt.Sprintf("item-%03d", i))
			}
		}(p)
	}
	wg.Wait()
	require.NoError(t, mgr.Close())

	// Oldest backup first, current file last: chronological order.
	var lines []string
	for n := spec.BackupCount; n >= 1; n-- {
		backup := logPath + "." + strconv.Itoa(n)
		fi, err := os.Stat(backup)
		if err != nil {
			continue
		}
		assert.LessOrEqual(t, fi.Size(), spec.MaxBytes, "%s exceeds max_bytes", backup)
		lines = append(lines, readLines(t, backup)...)
	}
	lines = append(lines, readLines(t, logPath)...)
	require.Len(t, lines, producers*perProducer)

	lastSeen := make(map[string]string)
	for _, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		if prev, ok := lastSeen[fields[0]]; ok {
			assert.Greater(t, fields[2], prev, "order violated for %s", fields[0])
		}
		lastSeen[fields[0]] = fields[2]
	}
	assert.Len(t, lastSeen, producers)
}

// TestOwnerWorkerAggregation runs three concurrent workers through a shared
// queue: all records arrive and each worker's own order is preserved
func TestOwnerWorkerAggregation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := fileConfig(logPath)

	owner, err := NewFromConfig(cfg, WithMultiprocessing())
	require.NoError(t, err)

	const workers = 3
	const perWorker = 3

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()

			worker, err := NewFromConfig(cfg, WithMultiprocessing(), WithQueue(owner.Queue()))
			if err != nil {
				t.Errorf("worker %d: %v", w, err)
				return
			}
			defer worker.Close()

			logger := worker.GetLogger(fmt.Sprintf("worker-%d", w))
			for i := 0; i < perWorker; i++ {
				logger.Info(fmt.Sprintf("item-%d", i))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, owner.Stop())

	lines := readLines(t, logPath)
	require.Len(t, lines, workers*perWorker)

	perWorkerSeen := make(map[string][]string)
	for _, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 3)
		perWorkerSeen[fields[0]] = append(perWorkerSeen[fields[0]], fields[2])
	}

	require.Len(t, perWorkerSeen, workers)
	for name, messages := range perWorkerSeen {
		assert.Equal(t, []string{"item-0", "item-1", "item-2"}, messages,
			"order violated for %s", name)
	}
}

// TestConfigErrorBeforeResources verifies a bad config path fails New before
// any handler, queue, or listener exists
func TestConfigErrorBeforeResources(t *testing.T) {
	mgr, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.Nil(t, mgr)

	mgr, err = New(filepath.Join(t.TempDir(), "logging.conf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.Nil(t, mgr)
}

func TestNewLoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	configPath := filepath.Join(dir, "logging.yaml")
	content := fmt.Sprintf(`
root:
  level: DEBUG
handlers:
  app_file:
    type: file
    level: DEBUG
    filename: %s
    formatter:
      format: "%%(message)s"
`, logPath)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	mgr, err := New(configPath)
	require.NoError(t, err)

	mgr.GetLogger("app").Info("loaded from file")
	require.NoError(t, mgr.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Equal(t, "loaded from file", lines[0])
}

// TestWorkerStopIsNoOp verifies a worker stopping never tears down the
// listener other workers depend on
func TestWorkerStopIsNoOp(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := fileConfig(logPath)

	owner, err := NewFromConfig(cfg, WithMultiprocessing())
	require.NoError(t, err)

	worker, err := NewFromConfig(cfg, WithMultiprocessing(), WithQueue(owner.Queue()))
	require.NoError(t, err)

	require.NoError(t, worker.Stop())
	require.NoError(t, worker.Stop())
	assert.True(t, owner.listener.Running(), "owner listener must survive worker Stop")

	// The path still works after the worker "stopped".
	worker.GetLogger("late").Info("still flowing")
	require.NoError(t, owner.Stop())

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "still flowing")
}

func TestStopIdempotent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	mgr, err := NewFromConfig(fileConfig(logPath), WithMultiprocessing())
	require.NoError(t, err)

	require.NoError(t, mgr.Stop())
	require.NoError(t, mgr.Stop())
	require.NoError(t, mgr.Close())
	assert.False(t, mgr.listener.Running())
}

// TestGetLoggerRebindsFresh verifies repeated GetLogger returns the same
// facade with its binding reset rather than stacked
func TestGetLoggerRebindsFresh(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	mgr, err := NewFromConfig(fileConfig(logPath))
	require.NoError(t, err)

	first := mgr.GetLogger("app")
	first.SetLevel(LevelCritical)

	second := mgr.GetLogger("app")
	assert.Same(t, first, second)
	assert.Equal(t, LevelDebug, second.Level(), "rebind must restore the configured level")

	second.Info("once only")
	require.NoError(t, mgr.Close())

	// One facade, one write path: no duplicated lines.
	assert.Len(t, readLines(t, logPath), 1)
}

func TestGetLoggerDefaultLevelFallback(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := fileConfig(logPath)
	cfg.Root.Level = ""

	mgr, err := NewFromConfig(cfg)
	require.NoError(t, err)
	defer mgr.Close()

	assert.Equal(t, LevelInfo, mgr.GetLogger("default").Level())
	assert.Equal(t, LevelError, mgr.GetLogger("custom", LevelError).Level())
	assert.False(t, mgr.GetLogger("default").Propagate())
}

// TestProducerSideLevelFilter verifies records below the facade level are
// dropped at the producer and never reach a sink
func TestProducerSideLevelFilter(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	cfg := fileConfig(logPath)
	cfg.Root.Level = "WARNING"

	mgr, err := NewFromConfig(cfg)
	require.NoError(t, err)

	logger := mgr.GetLogger("filtered")
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warning("kept")
	logger.Error("kept")
	require.NoError(t, mgr.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WARNING kept")
	assert.Contains(t, lines[1], "ERROR kept")
}

func TestFacadeArgumentRendering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	mgr, err := NewFromConfig(fileConfig(logPath))
	require.NoError(t, err)

	logger := mgr.GetLogger("render")
	logger.Info("processing item", 42, "retry", true, 3.5)
	logger.Info("failed:", fmt.Errorf("boom"))
	require.NoError(t, mgr.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)
	assert.Equal(t, "render INFO processing item 42 retry true 3.5", lines[0])
	assert.Equal(t, "render INFO failed: boom", lines[1])
}

func TestUnboundFacadeDiscards(t *testing.T) {
	logger := newFacade("orphan")

	// Must not panic or block; records go nowhere.
	logger.Info("into the void")
	logger.Critical("still nothing")
	assert.Equal(t, "orphan", logger.Name())
}
