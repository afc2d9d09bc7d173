package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nchiang/moodiary/internal/sentiment"
)

// readAudioFile is a test seam for loading the recorded clip.
var readAudioFile = os.ReadFile

// fusionAlpha weighs the text modality in the fused classification.
const fusionAlpha = 0.5

// Voice saves a diary entry from a recorded audio clip plus a typed note.
// The clip is classified remotely (fusion when a note is present, speech
// otherwise); when no voice endpoint answers, the note alone is classified
// by the regular text analyzer. Online, the clip is archived in object
// storage and linked to the entry.
func (a *App) Voice(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Path of the audio clip", os.Stdout)
	if err != nil {
		return err
	}
	audio, err := readAudioFile(path)
	if err != nil {
		printlnFn("Could not read the audio file:", err.Error())
		return err
	}

	content, err := GetMultiline(a.reader, "Describe the entry", os.Stdout)
	if err != nil {
		return err
	}

	staged := a.classifyVoice(ctx, content, audio, filepath.Base(path))
	entry, err := a.service.Save(ctx, a.currentUserID(), content, staged)
	if err != nil {
		a.logger.Error(ctx, "voice save failed", "error", err)
		printlnFn("Could not save the entry:", err.Error())
		return err
	}

	if entry.LocalPending {
		printlnFn("Saved locally, will sync when back online. The clip is not archived.")
	} else {
		printlnFn("Saved.")
		a.archiveClip(ctx, entry.ID, filepath.Base(path), audio)
	}
	printlnFn("Mood:", describeSentiment(entry.Sentiment))
	return nil
}

// classifyVoice tries the fusion gateway first, then the speech endpoint.
// A nil return hands classification over to the text analyzer in Save.
func (a *App) classifyVoice(ctx context.Context, content string, audio []byte, filename string) *sentiment.Sentiment {
	if a.fusion != nil && content != "" {
		res, err := a.fusion.Predict(ctx, content, audio, fusionAlpha)
		if err == nil {
			s := res.Sentiment()
			return &s
		}
		a.logger.Warn(ctx, "fusion classification failed", "error", err)
	}
	if a.speech != nil {
		s, err := a.speech.Infer(ctx, audio, filename)
		if err == nil {
			return &s
		}
		a.logger.Warn(ctx, "speech classification failed", "error", err)
	}
	return nil
}

// archiveClip uploads the audio through a presigned URL and links the object
// key to the entry. Failures only cost the archived clip, never the entry.
func (a *App) archiveClip(ctx context.Context, entryID, fileName string, audio []byte) {
	uploadURL, key, err := a.clips.PresignUpload(ctx, fileName)
	if err != nil {
		a.logger.Warn(ctx, "presign upload failed", "error", err)
		printlnFn("Could not archive the clip:", err.Error())
		return
	}
	if err := a.clips.UploadToPresignedURL(ctx, uploadURL, audio); err != nil {
		a.logger.Warn(ctx, "clip upload failed", "error", err)
		printlnFn("Could not archive the clip:", err.Error())
		return
	}
	if err := a.service.AttachVoiceClip(ctx, a.currentUserID(), entryID, key); err != nil {
		a.logger.Warn(ctx, "clip link failed", "error", err)
		printlnFn("Could not link the clip to the entry:", err.Error())
		return
	}
	printlnFn("Clip archived.")
}
