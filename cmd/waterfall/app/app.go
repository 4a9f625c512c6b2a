package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/constanza1110101/tetra-analyzer/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil {
		return fmt.Errorf("database file %q: %w", config.DBPath, err)
	}

	store := storage.New(config.DBPath)
	defer store.Close()

	sess, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %d: %w", config.SessionID, err)
	}

	rows, err := store.Spectra(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("loading spectra: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("session %d has no stored spectra", config.SessionID)
	}

	logger.Info("rendering waterfall",
		slog.String("session", sess.UUID),
		slog.String("device", sess.DeviceType),
		slog.Int("spectra", len(rows)),
		slog.Duration("span", elapsed(rows)),
		slog.String("destination", config.OutputFile),
		slog.String("theme", string(config.Theme)))

	img, err := NewRenderer(config).Render(rows)
	if err != nil {
		return fmt.Errorf("rendering waterfall: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	}
	return err
}
