package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/examlens/internal/favorites"
	"github.com/abhisek/examlens/internal/media"
	"github.com/abhisek/examlens/internal/narration"
	"github.com/abhisek/examlens/internal/problem"
	"github.com/abhisek/examlens/internal/session"
)

var speakCmd = &cobra.Command{
	Use:   "speak [photo...]",
	Short: "Read a solution aloud and write it as audio",
	Long: `Synthesizes speech for the standard solution of the photographed
question, for a saved favorite (--favorite) or for free text (--text).

The result is written as WAV, or as raw 24 kHz mono s16le PCM with --pcm.`,
	RunE: runSpeak,
}

func init() {
	speakCmd.Flags().String("favorite", "", "Favorite ID (or unique prefix) to read")
	speakCmd.Flags().String("text", "", "Text to read")
	speakCmd.Flags().StringP("subject", "s", "", "Subject hint when reading a photographed question")
	speakCmd.Flags().StringP("output", "o", "", "Output file (default solution.wav or solution.pcm)")
	speakCmd.Flags().Bool("pcm", false, "Write raw PCM instead of WAV")
	speakCmd.Flags().String("voice", "", "Voice name (overrides config)")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	favID, _ := cmd.Flags().GetString("favorite")
	text, _ := cmd.Flags().GetString("text")

	sources := 0
	for _, set := range []bool{favID != "", text != "", len(args) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("give exactly one of: photos, --favorite, --text")
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	script := strings.TrimSpace(text)
	if favID != "" {
		favs, err := favorites.Load(ctx, st.FavoriteRepo(), log.With("component", "favorites"))
		if err != nil {
			return err
		}
		f, ok := favs.Get(favID)
		if !ok {
			return fmt.Errorf("favorite %q not found", favID)
		}
		script = narration.PracticeScript(f.Practice)
	}

	gw, err := newGateway(ctx, st.EventRepo())
	if err != nil {
		return err
	}

	if len(args) > 0 {
		images := make([]*problem.Image, 0, len(args))
		for _, p := range args {
			img, err := media.ReadImage(p)
			if err != nil {
				return err
			}
			images = append(images, img)
		}
		subject, _ := cmd.Flags().GetString("subject")
		rec, err := session.NewPipeline(gw, log).Recognizer.Recognize(ctx, images, problem.ParseSubject(subject))
		if err != nil {
			return fmt.Errorf("recognize question: %w", err)
		}
		script = narration.SolutionScript(rec)
	}

	voice := cfg.LLM.Voice
	if v, _ := cmd.Flags().GetString("voice"); v != "" {
		voice = v
	}
	audio, err := narration.New(gw.SpeechHigh, gw.SpeechLow, voice, log.With("component", "narration")).Speak(ctx, script)
	if err != nil {
		return err
	}

	pcm, _ := cmd.Flags().GetBool("pcm")
	out, _ := cmd.Flags().GetString("output")
	data := audio.WAV()
	if pcm {
		data = audio.PCM
	}
	if out == "" {
		out = "solution.wav"
		if pcm {
			out = "solution.pcm"
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, audio.Duration().Round(100*time.Millisecond))
	return nil
}
