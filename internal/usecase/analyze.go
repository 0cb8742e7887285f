package usecase

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/analysis/audio"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/analysis/filler"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/analysis/video"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
	"github.com/fairyhunter13/ai-interview-analyzer/internal/domain"
)

// MediaProcessor is the decoding seam between the worker and ffmpeg.
type MediaProcessor interface {
	ExtractAudioWAV(ctx domain.Context, src, dst string) error
	DecodeGrayFrames(ctx domain.Context, src string, maxFrames int) ([]*image.Gray, error)
}

// VideoAnalyzer is the per-frame feature extraction seam.
type VideoAnalyzer interface {
	ExtractFeatures(frames []*image.Gray) (video.Features, error)
}

// SpoolCleaner removes spooled media once a job reaches a terminal state.
type SpoolCleaner interface {
	Remove(paths ...string)
}

// AnalyzeService runs the multimodal pipeline for one queued clip. Analysis
// failures degrade the affected modality and still complete the job; only
// persistence failures surface, so the queue redelivers exactly the work
// that could not be recorded.
type AnalyzeService struct {
	Jobs        domain.JobRepository
	Analyses    domain.AnalysisRepository
	Media       MediaProcessor
	Spool       SpoolCleaner
	Video       VideoAnalyzer
	Transcriber domain.Transcriber

	Analysis       config.AnalysisConfig
	SegmentTimeout time.Duration

	// Decode seams, injected so pipeline tests need no real WAV files.
	LoadWAV  func(path string) ([]float64, int, error)
	SplitWAV func(path string, maxSeconds int) ([]string, error)
}

// Process handles one queue delivery end to end. Re-deliveries of a finished
// job are acknowledged without rework.
func (s AnalyzeService) Process(ctx domain.Context, payload domain.AnalyzeTaskPayload) error {
	job, err := s.Jobs.Get(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("op=analyze.Process get job: %w", err)
	}
	if job.Status == domain.JobCompleted {
		slog.Info("job already completed, skipping", slog.String("job_id", job.ID))
		return nil
	}
	if err := s.Jobs.UpdateStatus(ctx, job.ID, domain.JobProcessing, nil); err != nil {
		return fmt.Errorf("op=analyze.Process mark processing: %w", err)
	}

	var (
		videoResult *domain.VideoAnalysis
		audioResult *domain.AudioAnalysis
		derived     []string
		wg          sync.WaitGroup
		mu          sync.Mutex
	)

	if payload.Kind == domain.MediaVideo {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := s.analyzeVideo(ctx, payload.MediaPath)
			videoResult = &v
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a, files := s.analyzeAudio(ctx, payload.MediaPath)
		audioResult = &a
		mu.Lock()
		derived = append(derived, files...)
		mu.Unlock()
	}()
	wg.Wait()

	if err := s.Analyses.CreateOrUpdate(ctx, payload.SessionID, payload.QuestionID, videoResult, audioResult); err != nil {
		msg := err.Error()
		_ = s.Jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, &msg)
		// Derived artifacts are regenerated on redelivery; only the source
		// clip stays for the retry.
		s.Spool.Remove(derived...)
		return fmt.Errorf("op=analyze.Process store analysis: %w", err)
	}
	if err := s.Jobs.UpdateStatus(ctx, job.ID, domain.JobCompleted, nil); err != nil {
		return fmt.Errorf("op=analyze.Process mark completed: %w", err)
	}

	s.Spool.Remove(append(derived, payload.MediaPath)...)
	slog.Info("clip analyzed",
		slog.String("job_id", job.ID),
		slog.String("session_id", payload.SessionID),
		slog.String("kind", string(payload.Kind)))
	return nil
}

func (s AnalyzeService) analyzeVideo(ctx domain.Context, mediaPath string) domain.VideoAnalysis {
	frames, err := s.Media.DecodeGrayFrames(ctx, mediaPath, s.Analysis.MaxFrames)
	if err != nil {
		slog.Warn("video decode failed, degrading", slog.String("media", mediaPath), slog.Any("error", err))
		return video.DegradedAnalysis("video could not be decoded")
	}
	features, err := s.Video.ExtractFeatures(frames)
	if err != nil {
		slog.Warn("video feature extraction failed, degrading", slog.Any("error", err))
		return video.DegradedAnalysis("video features could not be extracted")
	}
	return video.Score(features)
}

// analyzeAudio returns the analysis plus every derived file it created, so
// the caller can clean the spool after the job completes.
func (s AnalyzeService) analyzeAudio(ctx domain.Context, mediaPath string) (domain.AudioAnalysis, []string) {
	wavPath := mediaPath + ".16k.wav"
	if err := s.Media.ExtractAudioWAV(ctx, mediaPath, wavPath); err != nil {
		slog.Warn("audio extraction failed, degrading", slog.String("media", mediaPath), slog.Any("error", err))
		return audio.DegradedAnalysis(err), nil
	}
	derived := []string{wavPath}

	samples, rate, err := s.LoadWAV(wavPath)
	if err != nil {
		slog.Warn("wav load failed, degrading", slog.Any("error", err))
		return audio.DegradedAnalysis(err), derived
	}

	features := audio.ExtractFeatures(samples, rate)
	if features.NoSpeech {
		return audio.NoSpeechAnalysis(features.Duration), derived
	}

	fillerCount := 0
	segments, err := s.SplitWAV(wavPath, s.Analysis.SegmentSeconds)
	if err != nil {
		slog.Warn("segment split failed, filler count unavailable", slog.Any("error", err))
	} else {
		for _, seg := range segments {
			if seg != wavPath {
				derived = append(derived, seg)
			}
		}
		fillerCount = filler.CountFillers(ctx, segments, s.Transcriber, s.Analysis.FillerWords, s.SegmentTimeout)
	}

	return audio.Score(features, fillerCount, s.Analysis.IdealSpeechRate), derived
}
