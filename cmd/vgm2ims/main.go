// Command vgm2ims transcodes a YM3812 VGM log into an IMS event stream and
// its companion AdLib BNK instrument bank.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sbsound/vgm2ims"
)

var (
	flagOutput string
	flagTempo  int
	flagName   string
)

var rootCmd = &cobra.Command{
	Use:           "vgm2ims <input.vgm>",
	Short:         "Transcode a YM3812 VGM log into an IMS stream and AdLib BNK bank",
	Args:          cobra.ExactArgs(1),
	RunE:          runConvert,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output .ims path (default: alongside the input)")
	rootCmd.Flags().IntVar(&flagTempo, "tempo", 120, "playback tempo in BPM, 1..255")
	rootCmd.Flags().StringVar(&flagName, "name", "", "song name embedded in the IMS header (default: input basename)")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("vgm2ims: ")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	if flagTempo < 1 || flagTempo > 255 {
		return vgm2ims.ErrTempoOutOfRange
	}

	inputPath := args[0]
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	outPath := flagOutput
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".ims"
	}
	bnkPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".bnk"

	name := flagName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}

	result, err := vgm2ims.Convert(data, vgm2ims.Options{Tempo: flagTempo, Name: name})
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, result.IMS, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(bnkPath, result.BNK, 0o644); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Printf("wrote %s\n", cyan(outPath))
	fmt.Printf("wrote %s\n", cyan(bnkPath))
	fmt.Printf("%s instruments, %s events\n", yellow(result.Stats.InstrumentCount), yellow(result.Stats.EventCount))

	return nil
}
