package bootstrap

import (
	"github.com/joho/godotenv"

	"prepdeck/internal/audio"
	"prepdeck/internal/config"
	"prepdeck/internal/history"
	"prepdeck/internal/ports"
	"prepdeck/internal/providers/azure"
	"prepdeck/internal/providers/deepgram"
	"prepdeck/internal/transcript"
	"prepdeck/internal/usecase"
	"prepdeck/internal/voice"
)

// Services is the assembled runtime graph.
type Services struct {
	Interview *usecase.InterviewController
	Prep      *usecase.PrepController
	Config    config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, clipboard ports.Clipboard) (Services, error) {
	// Optional .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	cleaner, err := transcript.NewCleaner(cfg.Storage.RulesFile)
	if err != nil {
		return Services{}, err
	}

	interviewStore, err := history.NewInterviewStore(cfg.Storage.InterviewFile)
	if err != nil {
		return Services{}, err
	}
	questionStore, err := history.NewQuestionStore(cfg.Storage.QuestionsFile)
	if err != nil {
		return Services{}, err
	}

	generator := azure.NewClient(azure.Config{
		APIKey:     cfg.Generation.APIKey,
		Endpoint:   cfg.Generation.Endpoint,
		Deployment: cfg.Generation.Deployment,
		APIVersion: cfg.Generation.APIVersion,
		ProviderID: cfg.Generation.Provider,
		Timeout:    cfg.Generation.Timeout,
	})

	speech := deepgram.NewProvider(deepgram.Config{
		APIKey:     cfg.Speech.APIKey,
		APIBaseURL: cfg.Speech.APIBaseURL,
		Model:      cfg.Speech.Model,
		Language:   cfg.Speech.Language,
	})

	interviewVoice := voice.NewAdapter(voiceOptions(cfg, speech, cleaner))
	prepVoice := voice.NewAdapter(voiceOptions(cfg, speech, cleaner))

	interview, err := usecase.NewInterviewController(
		generator,
		interviewVoice,
		interviewStore,
		eventSink,
		usecase.InterviewConfig{
			Provider:       cfg.Generation.Provider,
			TotalQuestions: cfg.Session.TotalQuestions,
		},
	)
	if err != nil {
		return Services{}, err
	}

	prep, err := usecase.NewPrepController(
		generator,
		prepVoice,
		questionStore,
		clipboard,
		eventSink,
		usecase.PrepConfig{Provider: cfg.Generation.Provider},
	)
	if err != nil {
		return Services{}, err
	}

	return Services{Interview: interview, Prep: prep, Config: cfg}, nil
}

func voiceOptions(cfg config.Config, speech ports.SpeechProvider, cleaner ports.TranscriptCleaner) voice.Options {
	return voice.Options{
		Provider: speech,
		Capture:  audio.NewCapture(cfg.Audio.RecorderCommand),
		Cleaner:  cleaner,
		Speech: ports.SpeechConfig{
			SampleRate:     cfg.Audio.SampleRate,
			Channels:       cfg.Audio.Channels,
			Encoding:       "linear16",
			Language:       cfg.Speech.Language,
			InterimResults: true,
		},
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		AutoSubmitDelay: cfg.Session.AutoSubmitDelay,
		ChunkSize:       cfg.Session.ChunkSize,
	}
}
