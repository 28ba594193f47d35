// Command vgmdump prints the decoded contents of a .vgm, .ims or .bnk file,
// dispatching on file extension the way moddump dispatches on .mod/.s3m.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/sbsound/vgm2ims"
	"github.com/sbsound/vgm2ims/internal/bnkread"
	"github.com/sbsound/vgm2ims/internal/imsread"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("vgmdump: ")

	if len(os.Args) != 2 {
		log.Fatal("usage: vgmdump <file.vgm|file.ims|file.bnk>")
	}

	path := os.Args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".vgm":
		err = dumpVGM(data)
	case ".ims":
		err = dumpIMS(data)
	case ".bnk":
		err = dumpBNK(data)
	default:
		err = fmt.Errorf("unrecognized extension for %q", path)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func dumpVGM(data []byte) error {
	parsed, err := vgm2ims.ParseVGM(data)
	if err != nil {
		return err
	}

	label := color.New(color.FgWhite).SprintFunc()
	value := color.New(color.FgCyan).SprintFunc()

	for _, cmd := range parsed.Commands {
		switch cmd.Kind {
		case vgm2ims.CmdWrite:
			fmt.Printf("%s reg=%s val=%s @%d\n", label("write"), value(fmt.Sprintf("%02X", cmd.Register)), value(fmt.Sprintf("%02X", cmd.Value)), cmd.AbsSample)
		case vgm2ims.CmdWait:
			fmt.Printf("%s %d samples -> @%d\n", label("wait"), cmd.WaitSamples, cmd.AbsSample)
		case vgm2ims.CmdEnd:
			fmt.Printf("%s @%d\n", label("end"), cmd.AbsSample)
		}
	}
	return nil
}

func dumpIMS(data []byte) error {
	song, err := imsread.Parse(data)
	if err != nil {
		return err
	}

	fmt.Printf("name=%q tempo=%d dMode=%d byteSize=%d instruments=%d\n",
		song.Name, song.BasicTempo, song.DMode, song.ByteSize, len(song.InstrumentNames))

	events, err := imsread.DecodeEvents(song.MusicData)
	if err != nil {
		return err
	}

	var tick uint32
	for _, ev := range events {
		fmt.Printf("tick=%d status=%02X data=% X\n", tick, ev.Status, ev.Data)
		tick += ev.DeltaAfter
	}
	for i, nm := range song.InstrumentNames {
		fmt.Printf("instrument %d: %s\n", i, nm)
	}
	return nil
}

func dumpBNK(data []byte) error {
	bank, err := bnkread.Parse(data)
	if err != nil {
		return err
	}

	fmt.Printf("insMaxNum=%d\n", bank.InsMaxNum)
	for _, e := range bank.Dir {
		fmt.Printf("%-8s -> insIndex=%d\n", e.Name, e.InsIndex)
	}
	return nil
}
