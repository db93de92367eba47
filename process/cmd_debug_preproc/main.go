package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"dlscan/pkg/ocr"
)

// Writes the preprocessed photo next to the input as <name>.preproc.<ext>
// and prints the quality assessment of the original.
func main() {
	in := flag.String("file", "", "license photo")
	flag.Parse()
	if *in == "" {
		fmt.Fprintln(os.Stderr, "-file required")
		os.Exit(2)
	}
	img, err := imaging.Open(*in, imaging.AutoOrientation(true))
	if err != nil {
		log.Fatal().Err(err).Msg("open")
	}
	q := ocr.AssessQuality(img)
	fmt.Printf("blur=%.4f brightness=%.4f glare=%.4f issues=%v\n", q.Blur, q.Brightness, q.Glare, q.Issues)

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("read")
	}
	out, err := ocr.Preprocess(ocr.Image{Data: data})
	if err != nil {
		log.Fatal().Err(err).Msg("preprocess")
	}
	ext := filepath.Ext(*in)
	dst := strings.TrimSuffix(*in, ext) + ".preproc" + ext
	if err := os.WriteFile(dst, out.Data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write")
	}
	fmt.Printf("wrote %s (%s, %d bytes)\n", dst, out.MIMEType, len(out.Data))
}
