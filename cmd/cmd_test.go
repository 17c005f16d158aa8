package cmd_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luminancehdr/hdr-batch/cmd"
)

func writePNG(path string) {
	m := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(30 * x)
			m.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	Expect(png.Encode(f, m)).To(Succeed())
}

var _ = Describe("commands", func() {
	var (
		dir    string
		outDir string
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		outDir = filepath.Join(dir, "out")
		Expect(os.Mkdir(outDir, 0o755)).To(Succeed())
		out = &bytes.Buffer{}
	})

	run := func(args ...string) error {
		root := cmd.NewRootCommand()
		root.SetArgs(append(args, "--log-level", "error"))
		root.SetOut(out)
		root.SetErr(out)
		return root.Execute()
	}

	Context("tonemap", func() {
		var settings string

		BeforeEach(func() {
			settings = filepath.Join(dir, "linear.txt")
			Expect(os.WriteFile(settings, []byte("TMOSETTINGSVERSION=0.6\nTMO=Linear\n"), 0o644)).To(Succeed())
		})

		It("should tone map every input and print the log", func() {
			input := filepath.Join(dir, "scene.png")
			writePNG(input)

			err := run("tonemap", "-i", input, "-s", settings, "-o", outDir, "--format", "png")
			Expect(err).NotTo(HaveOccurred())

			Expect(filepath.Join(outDir, "scene_linear.png")).To(BeAnExistingFile())
			Expect(out.String()).To(ContainSubstring("Start processing..."))
			Expect(out.String()).To(ContainSubstring("successful: scene.png with linear"))
			Expect(out.String()).To(ContainSubstring("All tasks completed."))
		})

		It("should fail when an item fails", func() {
			err := run("tonemap", "-i", filepath.Join(dir, "missing.hdr"), "-s", settings, "-o", outDir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("1 of 1"))
			Expect(out.String()).To(ContainSubstring("error: missing.hdr"))
		})

		It("should reject a missing output directory", func() {
			err := run("tonemap", "-i", "a.hdr", "-s", settings, "-o", filepath.Join(dir, "nope"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("output directory"))
		})

		It("should reject an invalid format through configuration", func() {
			err := run("tonemap", "-i", "a.hdr", "-s", settings, "-o", outDir, "--format", "bmp")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("merge", func() {
		It("should refuse inputs that do not split into sets", func() {
			err := run("merge", "-i", "a.jpg", "-i", "b.jpg", "-o", outDir, "--bracketed", "3")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("sets of 3"))
		})

		It("should log a failing set and report it", func() {
			a := filepath.Join(dir, "a.png")
			writePNG(a)

			err := run("merge", "-i", a, "-o", outDir, "--bracketed", "1", "--align=false")
			Expect(err).To(HaveOccurred())
			Expect(out.String()).To(ContainSubstring("error: a.png"))
		})
	})
})
