package initcmder_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/medibot/cmd/medibot/init"
	"github.com/papercomputeco/medibot/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(GinkgoWriter)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "medibot-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates a .medibot directory with a default config.toml", func() {
		Expect(run()).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.VectorStore.Provider).To(Equal("pinecone"))
		Expect(cfg.VectorStore.Index).To(Equal("medical-bot-llama2-7b"))
		Expect(cfg.Ingest.ChunkSize).To(Equal(uint(500)))
		Expect(cfg.Ingest.ChunkOverlap).To(Equal(uint(20)))
		Expect(cfg.VectorStore.APIKey).To(BeEmpty())
	})

	It("does not overwrite an existing directory without a preset", func() {
		dir := filepath.Join(tmpDir, ".medibot")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		testFile := filepath.Join(dir, "vectors.db")
		Expect(os.WriteFile(testFile, []byte("keep"), 0o644)).To(Succeed())

		Expect(run()).To(Succeed())

		data, err := os.ReadFile(testFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("keep"))
		_, err = os.Stat(filepath.Join(dir, "config.toml"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	Describe("--preset", func() {
		It("writes the local preset", func() {
			Expect(run("--preset", "local")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.VectorStore.Provider).To(Equal("sqlite"))
		})

		It("overwrites config.toml on re-init with a different preset", func() {
			Expect(run("--preset", "local")).To(Succeed())
			Expect(run("--preset", "qdrant")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
			Expect(cfg.VectorStore.Target).To(Equal("localhost:6334"))
		})

		It("rejects unknown preset names", func() {
			err := run("--preset", "weaviate")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))
		})

		It("fetches a remote config.toml", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "[vector_store]\nprovider = \"chroma\"\ntarget = \"http://localhost:8000\"\n")
			}))
			defer server.Close()

			Expect(run("--preset", server.URL)).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
			Expect(cfg.VectorStore.Target).To(Equal("http://localhost:8000"))
		})

		It("returns an error for a non-200 response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("returns an error for invalid TOML", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "this is not valid toml [[[")
			}))
			defer server.Close()

			err := run("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("parsing")))
		})
	})
})

func loadConfig(baseDir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(baseDir, ".medibot", "config.toml"))
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	ExpectWithOffset(1, toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}
