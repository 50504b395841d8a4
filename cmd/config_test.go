package cmd

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("loadConfig", func() {
	var dir string

	writeConfig := func(content []byte) {
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv("APP_ENV", "")
		GinkgoT().Setenv("DOCKER_ENV", "")
	})

	It("loads the example configuration", func() {
		example, err := os.ReadFile("../config.example.yml")
		Expect(err).NotTo(HaveOccurred())
		writeConfig(example)

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Server.Origins()).To(Equal([]string{"http://localhost:3000"}))
		Expect(cfg.Storage.Backend).To(Equal("local"))
		Expect(cfg.Storage.URLTTL).To(Equal(15 * time.Minute))
		Expect(cfg.Upload.MaxFileSize).To(Equal(int64(100 << 20)))
		Expect(cfg.Folders.StartYear).To(Equal(2015))
		Expect(cfg.Folders.EndYear).To(Equal(2040))
		Expect(cfg.Queue.Enabled).To(BeFalse())
	})

	It("lets ENV_ variables override file values", func() {
		example, err := os.ReadFile("../config.example.yml")
		Expect(err).NotTo(HaveOccurred())
		writeConfig(example)
		GinkgoT().Setenv("ENV_BROWSE_PAGE_SIZE", "25")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Browse.PageSize).To(Equal(25))
	})

	It("rejects a configuration without secrets", func() {
		writeConfig([]byte(`
database:
  source: postgres://localhost/db
  max_open_conns: 5
  max_idle_conns: 5
  conn_max_lifetime: 30m
  conn_max_idle_time: 5m
`))

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("AccessTokenSecret")))
	})

	It("reports a missing file", func() {
		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("error reading config")))
	})
})
