package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satriahrh/voxpense/adapters/audio"
	"github.com/satriahrh/voxpense/adapters/encoder"
	"github.com/satriahrh/voxpense/domain/capture"
	"github.com/satriahrh/voxpense/usecase"
)

func recordCmd() *cobra.Command {
	var review bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record an expense from the microphone",
		Long: `Record from the default microphone until Enter is pressed, transcribe the
recording and store the expense it describes.

With --review the extracted expense is shown and saved only after confirmation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecord(cmd.Context(), review)
		},
	}
	cmd.Flags().BoolVar(&review, "review", false, "confirm the extracted expense before saving")
	return cmd
}

func runRecord(ctx context.Context, review bool) error {
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sampleRate := a.cfg.STTSampleRate
	session := usecase.NewCaptureSession(
		audio.NewMicrophone(sampleRate, a.logger),
		encoder.FLACPackager{SampleRate: sampleRate, Language: a.cfg.STTLanguage},
		a.stt,
		a.coordinator,
		a.logger,
		usecase.SessionOptions{
			HoldForReview: review || !a.cfg.AutoSubmit,
			Listener: func(s capture.Snapshot) {
				fmt.Fprintf(os.Stderr, "[%s]\n", s.Phase)
			},
		},
	)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		return err
	}

	lines := readLines(os.Stdin)
	fmt.Fprintln(os.Stderr, "Recording... press Enter to stop.")
	if _, err := nextLine(ctx, lines); err != nil {
		return err
	}

	if err := session.Stop(ctx); err != nil {
		return err
	}
	snapshot, err := session.Wait(ctx)
	if err != nil {
		return err
	}

	if snapshot.Phase == capture.PhaseReview {
		if snapshot.NeedsManualEntry {
			fmt.Printf("Heard %q but found no amount; nothing saved.\n", snapshot.Result.Description)
			return session.Cancel()
		}
		if snapshot.Error != "" {
			fmt.Println("Not saved:", snapshot.Error)
		}
		fmt.Printf("%s  %s  %s\nSave? [y/N] ", snapshot.Result.Amount.Decimal.StringFixed(2), snapshot.Result.Category, snapshot.Result.Description)
		answer, err := nextLine(ctx, lines)
		if err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Discarded.")
			return session.Cancel()
		}
		if err := session.Confirm(ctx); err != nil {
			return err
		}
		if snapshot, err = session.Wait(ctx); err != nil {
			return err
		}
	}

	return printOutcome(snapshot)
}

// printOutcome reports a settled session
func printOutcome(snapshot capture.Snapshot) error {
	switch {
	case snapshot.Phase.Terminal() && snapshot.Expense != nil:
		e := snapshot.Expense
		fmt.Printf("Saved %s  %s  %s  (%s)\n", e.Amount.StringFixed(2), e.Category, e.Description, e.ID)
		return nil
	case snapshot.Error != "":
		return fmt.Errorf("%s", snapshot.Error)
	case snapshot.NeedsManualEntry:
		return fmt.Errorf("no amount found in %q", snapshot.Result.Description)
	default:
		return fmt.Errorf("session ended in %s", snapshot.Phase)
	}
}

// readLines delivers lines from r until it fails
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func nextLine(ctx context.Context, lines <-chan string) (string, error) {
	select {
	case line, ok := <-lines:
		if !ok {
			return "", io.ErrUnexpectedEOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
