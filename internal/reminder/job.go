package reminder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/nchiang/moodiary/internal/datex"
	"github.com/nchiang/moodiary/internal/logging"
	"github.com/nchiang/moodiary/internal/server/models"
	"github.com/nchiang/moodiary/internal/server/repositories/repomanager"
)

const (
	// profileSuffix selects every user's profile document regardless of the
	// parent path shape.
	profileSuffix = "/profile"

	// sendWindow is how long after the configured reminder time a run may
	// still send. Cron fires every few minutes; the window keeps a late run
	// useful and an early next-day run silent.
	sendWindow = 15 * time.Minute

	defaultReminderTime = "21:00"

	// sendPace spaces sends out so a large user base does not burst
	// through the mail provider's rate limit.
	sendPace = 250 * time.Millisecond
)

var reminderTimeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

// seams for tests
var (
	nowFn   = time.Now
	sleepFn = time.Sleep

	sendMail = func(apiKey, fromEmail, toEmail, appURL string) error {
		from := mail.NewEmail("moodiary", fromEmail)
		to := mail.NewEmail("", toEmail)
		subject := "📝 小提醒：今天寫一則情緒日記嗎？"
		plain := "嗨！今天還沒有日記紀錄。花 1 分鐘寫下當下的感受，讓自己看見情緒的脈絡 :)"
		html := fmt.Sprintf(`<div style="font-family:system-ui,sans-serif;color:#111">
<p>嗨！今天還沒有日記紀錄。</p>
<p>花 1 分鐘寫下當下的感受，讓自己看見情緒的脈絡 :)</p>
<p><a href="%s" style="display:inline-block;padding:10px 16px;border-radius:8px;background:#d36f72;color:#fff;text-decoration:none">前往寫日記</a></p>
</div>`, appURL)

		msg := mail.NewSingleEmail(from, subject, to, plain, html)
		resp, err := sendgrid.NewSendClient(apiKey).Send(msg)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
		}
		return nil
	}
)

// Summary is the machine-readable result of one run, logged as JSON so the
// cron wrapper can scrape it.
type Summary struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// Job is one reminder sweep over all profiles.
type Job struct {
	config      *Config
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewJob constructs a Job.
func NewJob(c *Config, db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *Job {
	return &Job{config: c, db: db, repomanager: rm, logger: logger}
}

// userIDFromProfile extracts the account id from a profile collection path
// shaped users/{uid}/profile. Anything else yields "".
func userIDFromProfile(collection string) string {
	parts := strings.Split(collection, "/")
	if len(parts) != 3 || parts[0] != "users" || parts[2] != "profile" {
		return ""
	}
	return parts[1]
}

// shouldSendNow reports whether the local time in tz is inside the send
// window after the configured reminder time. Malformed times fall back to
// the default evening slot.
func shouldSendNow(loc *time.Location, timeStr string) bool {
	if !reminderTimeRe.MatchString(timeStr) {
		timeStr = defaultReminderTime
	}
	hh, _ := strconv.Atoi(timeStr[:2])
	mm, _ := strconv.Atoi(timeStr[3:])

	now := nowFn().In(loc)
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, loc)
	diff := now.Sub(scheduled)
	return diff >= 0 && diff < sendWindow
}

// dayKeyIn returns today's YYYY-MM-DD in the given location.
func dayKeyIn(loc *time.Location) string {
	return nowFn().In(loc).Format(datex.DayKey)
}

// hasDiaryToday reports whether the user already wrote a non-deleted entry
// dated today in their timezone. String dates compare by normalized day key;
// numeric dates are Unix milliseconds converted into the user's zone.
func (j *Job) hasDiaryToday(ctx context.Context, userID string, loc *time.Location) (bool, error) {
	docs, err := j.repomanager.Documents(j.db).List(ctx, "users/"+userID+"/diaries")
	if err != nil {
		return false, err
	}

	today := dayKeyIn(loc)
	for _, d := range docs {
		if deleted, _ := d.Data["isDeleted"].(bool); deleted {
			continue
		}
		switch v := d.Data["date"].(type) {
		case string:
			if datex.Normalize(v) == today {
				return true, nil
			}
		case float64:
			if time.UnixMilli(int64(v)).In(loc).Format(datex.DayKey) == today {
				return true, nil
			}
		}
	}
	return false, nil
}

// Run performs one sweep and returns the Summary it also logs.
func (j *Job) Run(ctx context.Context) (*Summary, error) {
	profiles, err := j.repomanager.Documents(j.db).ListByCollectionSuffix(ctx, profileSuffix)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	summary := &Summary{Total: len(profiles)}

	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if j.processProfile(ctx, p) {
			summary.Sent++
			sleepFn(sendPace)
		} else {
			summary.Skipped++
		}
	}

	if b, err := json.Marshal(summary); err == nil {
		j.logger.Info(ctx, string(b))
	}
	return summary, nil
}

// processProfile handles one user and reports whether a mail went out.
// Per-user failures are logged and treated as skips so one bad profile
// cannot stall the sweep.
func (j *Job) processProfile(ctx context.Context, p *models.Document) bool {
	userID := userIDFromProfile(p.Collection)
	if userID == "" {
		return false
	}

	email, _ := p.Data["email"].(string)
	enabled, _ := p.Data["reminderEnabled"].(bool)
	if !enabled {
		// historic opt-in field written by early app versions
		enabled, _ = p.Data["reminderOptIn"].(bool)
	}
	if email == "" || !enabled {
		return false
	}

	tz, _ := p.Data["timezone"].(string)
	if tz == "" {
		tz = j.config.DefaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		j.logger.Warn(ctx, "bad timezone, using default", "user", userID, "tz", tz)
		loc, err = time.LoadLocation(j.config.DefaultTZ)
		if err != nil {
			return false
		}
	}

	timeStr, _ := p.Data["reminderTime"].(string)
	if !shouldSendNow(loc, timeStr) {
		return false
	}

	today := dayKeyIn(loc)
	if last, _ := p.Data["lastReminderSentDate"].(string); last == today {
		return false
	}

	has, err := j.hasDiaryToday(ctx, userID, loc)
	if err != nil {
		j.logger.Error(ctx, "diary lookup failed", "user", userID, "error", err)
		return false
	}
	if has {
		return false
	}

	if err := sendMail(j.config.SendgridAPIKey, j.config.FromEmail, email, j.config.AppURL); err != nil {
		j.logger.Error(ctx, "send failed", "user", userID, "email", email, "error", err)
		return false
	}

	err = j.repomanager.Documents(j.db).MergeFields(ctx, p.Collection, p.ID, map[string]any{
		"lastReminderSentDate": today,
		"lastReminderSentAt":   nowFn().UnixMilli(),
	})
	if err != nil {
		j.logger.Error(ctx, "marking reminder sent failed", "user", userID, "error", err)
	}
	return true
}
