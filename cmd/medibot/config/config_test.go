package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/medibot/cmd/medibot/config"
	"github.com/papercomputeco/medibot/pkg/config"
)

func execute(args ...string) (string, error) {
	root := &cobra.Command{Use: "medibot"}
	root.PersistentFlags().String("config-dir", "", "")
	root.AddCommand(configcmder.NewConfigCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"config"}, args...))
	err := root.Execute()
	return out.String(), err
}

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		subcommands := []string{}
		for _, sub := range cmd.Commands() {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "medibot-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// A local .medibot dir takes precedence over the home dir.
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".medibot"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("writes the value to config.toml", func() {
			_, err := execute("set", "vector_store.provider", "qdrant")
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".medibot", "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			cfg := &config.Config{}
			Expect(toml.Unmarshal(data, cfg)).To(Succeed())
			Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		})

		It("accepts float values for llm.temperature", func() {
			_, err := execute("set", "llm.temperature", "0.2")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("get", "llm.temperature")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("0.2"))
		})

		It("rejects unknown keys", func() {
			_, err := execute("set", "invalid_key", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			_, err := execute("set", "vector_store.provider")
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			_, err := execute("set", "ingest.chunk_size", "not-a-number")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			_, err := execute("set", "llm.model", "llama2:7b-chat")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("get", "llm.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("llama2:7b-chat"))
		})

		It("reports defaults when no config file exists", func() {
			out, err := execute("get", "vector_store.index")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("medical-bot-llama2-7b"))
		})

		It("rejects unknown keys", func() {
			_, err := execute("get", "invalid_key")
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			_, err := execute("get")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			out, err := execute("list")
			Expect(err).NotTo(HaveOccurred())
			for _, key := range config.ValidConfigKeys() {
				Expect(out).To(ContainSubstring(key))
			}
		})

		It("never lists the vector store API key", func() {
			out, err := execute("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).NotTo(ContainSubstring("api_key"))
		})

		It("rejects any arguments", func() {
			_, err := execute("list", "extra")
			Expect(err).To(HaveOccurred())
		})
	})
})
