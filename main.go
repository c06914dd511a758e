package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"waveclip/audio"
	"waveclip/cmd"
	"waveclip/config"

	"github.com/dhowden/tag"
	"github.com/schollz/progressbar/v3"
)

func main() {
	var (
		server bool
		port   int
		input  string
		output string
		start  float64
		end    float64
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.IntVar(&port, "port", config.GetServerPort(), "Port for web server mode")
	flag.StringVar(&input, "input", "", "Audio file to trim")
	flag.StringVar(&output, "output", "", "Destination WAV file")
	flag.Float64Var(&start, "start", 0, "Selection start in seconds")
	flag.Float64Var(&end, "end", 0, "Selection end in seconds (0 = end of file)")
	flag.Parse()

	// Server mode takes precedence
	if server {
		cmd.StartWebServer(port)
		return
	}

	if input == "" || output == "" {
		flag.Usage()
		return
	}

	if err := trimFile(input, output, start, end); err != nil {
		log.Fatalf("Error: %s", err)
	}
}

// trimFile is the one-shot CLI path: decode, trim, encode, write.
func trimFile(input, output string, start, end float64) error {
	format, err := audio.DetectFormat(input, "")
	if err != nil {
		return err
	}

	printMetadata(input)

	decoder := audio.DecoderFor(format, config.GetFFmpegPath())
	src, err := decoder.DecodeFile(input)
	if err != nil {
		return err
	}

	if end <= 0 {
		end = src.Duration()
	}
	fmt.Printf("Source: %.2fs, %d Hz, %d channel(s)\n", src.Duration(), src.SampleRate, src.NumChannels())

	trimmed, err := audio.Trim(src, start, end)
	if err != nil {
		return err
	}

	data, err := audio.EncodeWAV(trimmed)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", output, err)
	}
	defer f.Close()

	bar := progressbar.DefaultBytes(int64(len(data)), "writing "+output)
	if _, err := io.Copy(io.MultiWriter(f, bar), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("cannot write %s: %w", output, err)
	}

	fmt.Printf("Wrote %s: %.2fs [%.2f - %.2f]\n", output, trimmed.Duration(), start, end)
	return nil
}

// printMetadata prints tag metadata from the input file when present
func printMetadata(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return
	}

	if meta.Title() != "" {
		fmt.Printf("Title:  %s\n", meta.Title())
	}
	if meta.Artist() != "" {
		fmt.Printf("Artist: %s\n", meta.Artist())
	}
	if meta.Album() != "" {
		fmt.Printf("Album:  %s\n", meta.Album())
	}
}
