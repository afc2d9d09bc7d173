package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/nchiang/moodiary/internal/client/config"
	"github.com/nchiang/moodiary/internal/client/diary"
	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/client/pending"
	"github.com/nchiang/moodiary/internal/client/remote"
	"github.com/nchiang/moodiary/internal/logging"
	"github.com/nchiang/moodiary/internal/sentiment"
)

// voiceInferrer classifies an audio clip on its own; voicePredictor fuses it
// with a text note. Both are optional, depending on configured endpoints.
type voiceInferrer interface {
	Infer(ctx context.Context, audio []byte, filename string) (sentiment.Sentiment, error)
}

type voicePredictor interface {
	Predict(ctx context.Context, text string, audio []byte, alpha float64) (*sentiment.FusionResult, error)
}

// clipUploader archives raw audio in object storage via backend-presigned
// URLs.
type clipUploader interface {
	PresignUpload(ctx context.Context, fileName string) (uploadURL, key string, err error)
	UploadToPresignedURL(ctx context.Context, uploadURL string, data []byte) error
}

// App holds the wired client: remote store, pending store, reconciler,
// monitor and the diary service, plus the interactive session state.
type App struct {
	config  *config.Config
	store   *remote.HTTPStore
	service *diary.Service
	rec     *diary.Reconciler
	monitor *diary.Monitor
	speech  voiceInferrer
	fusion  voicePredictor
	clips   clipUploader
	logger  logging.Logger
	reader  *bufio.Reader

	mu        sync.RWMutex
	userID    string
	userEmail string
	banner    string
	entries   []*models.Entry
}

// NewApp wires the application from config. The local pending database is
// opened (and migrated) here.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := pending.Open(ctx, c.DBPath)
	if err != nil {
		logger.Error(ctx, "error initializing local database", "error", err)
		return nil, err
	}
	pendingRepo := pending.NewSQLiteRepository(db)

	store := remote.NewHTTPStore(c.ServerEndpointURL)

	var inferrer sentiment.TextInferrer
	if c.TextAPIURL != "" {
		inferrer = sentiment.NewTextClient(c.TextAPIURL, c.TextAPIKey)
	}
	analyzer := sentiment.NewAnalyzer(inferrer, logger)

	a := &App{
		config: c,
		store:  store,
		clips:  store,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}
	if c.SpeechAPIURL != "" {
		a.speech = sentiment.NewSpeechClient(c.SpeechAPIURL, c.TextAPIKey)
	}
	if c.FusionAPIURL != "" {
		a.fusion = sentiment.NewFusionClient(c.FusionAPIURL)
	}

	a.rec = diary.NewReconciler(store, pendingRepo, analyzer, logger)
	a.monitor = diary.NewMonitor(store, pendingRepo, a.rec,
		a.currentUserID, a.onStatus, logger)
	a.service = diary.NewService(store, pendingRepo, analyzer,
		a.monitor.Online, logger)

	return a, nil
}

// Run starts the connectivity watcher and the REPL; it blocks until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	go a.monitor.Start(ctx, a.config.OnlineCheckInterval)

	fmt.Println("moodiary CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) currentUserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID
}

func (a *App) isLoggedIn() bool {
	return a.currentUserID() != ""
}

func (a *App) onStatus(ev diary.StatusEvent) {
	a.mu.Lock()
	a.banner = ev.Message
	a.mu.Unlock()
}

func (a *App) getStatus() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := ""
	if a.userEmail != "" {
		s = a.userEmail + " "
	}
	s += a.monitor.State().String()
	if a.banner != "" {
		s += " | " + a.banner
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) setEntries(entries []*models.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = entries
}

func (a *App) lastEntries() []*models.Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.entries
}
