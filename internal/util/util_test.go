package util_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luminancehdr/hdr-batch/internal/util"
)

var _ = Describe("util", func() {
	Context("ListFiles", func() {
		It("should return matching regular files sorted by name", func() {
			dir := GinkgoT().TempDir()
			for _, name := range []string{"c.hdr", "a.hdr", "b.txt"} {
				Expect(os.WriteFile(filepath.Join(dir, name), nil, 0o644)).To(Succeed())
			}
			Expect(os.Mkdir(filepath.Join(dir, "d.hdr"), 0o755)).To(Succeed())

			files, err := util.ListFiles(dir, func(p string) bool { return strings.HasSuffix(p, ".hdr") })
			Expect(err).NotTo(HaveOccurred())
			Expect(files).To(Equal([]string{filepath.Join(dir, "a.hdr"), filepath.Join(dir, "c.hdr")}))
		})

		It("should fail on a missing directory", func() {
			_, err := util.ListFiles(filepath.Join(GinkgoT().TempDir(), "missing"), nil)
			Expect(err).To(HaveOccurred())
		})
	})

	It("should drop duplicates keeping order", func() {
		Expect(util.Dedup([]string{"b", "a", "b", "c", "a"})).To(Equal([]string{"b", "a", "c"}))
	})

	It("should find strings in a slice", func() {
		Expect(util.Contains([]string{"console", "json"}, "json")).To(BeTrue())
		Expect(util.Contains(nil, "json")).To(BeFalse())
	})
})
