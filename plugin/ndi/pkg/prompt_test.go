package ndi

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogPrompterContinues(t *testing.T) {
	opened := 0
	p := LogPrompter{
		Logger: discardLogger(),
		open:   func(string) error { opened++; return nil },
	}
	choice := p.MissingRuntime(errors.New("ndi runtime not found"))
	assert.Equal(t, ChoiceContinue, choice)
	assert.Zero(t, opened)
}

func TestLogPrompterOpensDownload(t *testing.T) {
	var openedURL string
	p := LogPrompter{
		Logger:   discardLogger(),
		AutoOpen: true,
		open:     func(url string) error { openedURL = url; return nil },
	}
	choice := p.MissingRuntime(errors.New("ndi runtime not found"))
	assert.Equal(t, ChoiceOpenDownload, choice)
	assert.Equal(t, DownloadURL, openedURL)
}

func TestLogPrompterSurvivesBrowserFailure(t *testing.T) {
	p := LogPrompter{
		Logger:   discardLogger(),
		AutoOpen: true,
		open:     func(string) error { return errors.New("no display") },
	}
	assert.Equal(t, ChoiceOpenDownload, p.MissingRuntime(errors.New("ndi runtime not found")))
}
