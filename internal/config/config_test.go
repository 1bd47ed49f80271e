package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yamlContent := `
aliyun:
  api_key: "yaml_key"
  model: "qwen-max"
qdrant:
  endpoint: "http://qdrant:6333"
  collection: "test_coll"
server:
  address: ":9000"
coach:
  chunk_size: 400
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml_key", cfg.Aliyun.APIKey)
	assert.Equal(t, "qwen-max", cfg.Aliyun.Model)
	assert.Equal(t, "http://qdrant:6333", cfg.Qdrant.Endpoint)
	assert.Equal(t, "test_coll", cfg.Qdrant.Collection)
	assert.Equal(t, ":9000", cfg.Server.Address)

	// 未写明的字段应回填默认值
	assert.Equal(t, 400, cfg.Coach.ChunkSize)
	assert.Equal(t, 50, cfg.Coach.ChunkOverlap)
	assert.Equal(t, 5, cfg.Coach.ResumeTopK)
	assert.Equal(t, 3, cfg.Coach.CoachTopK)
	assert.Equal(t, 300, cfg.Coach.MinResumeChars)
	assert.Equal(t, 60000, cfg.Coach.MaxResumeChars)
	assert.Equal(t, "text-embedding-v3", cfg.Aliyun.Embedding.Model)
	assert.Equal(t, 1024, cfg.Aliyun.Embedding.Dimensions)
	assert.Equal(t, cfg.Aliyun.Embedding.Dimensions, cfg.Qdrant.Dimension)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliyun:\n  api_key: \"yaml_key\"\n"), 0644))

	t.Setenv("ALIYUN_API_KEY", "env_key")
	t.Setenv("SERVER_API_KEY", "gate_key")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env_key", cfg.Aliyun.APIKey)
	assert.Equal(t, "gate_key", cfg.Server.APIKey)
}

func TestLoadConfigMissingFileInTestEnv(t *testing.T) {
	// go test下配置文件缺失时回退到内置默认配置
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "no_such.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.Aliyun.APIURL)
	assert.Equal(t, 500, cfg.Coach.ChunkSize)
}

func TestValidate(t *testing.T) {
	cfg := createDefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Aliyun.APIKey = ""
	assert.Error(t, cfg.Validate())

	cfg = createDefaultConfig()
	cfg.Qdrant.Endpoint = ""
	assert.Error(t, cfg.Validate())

	// MySQL是权威存储，缺失必须在启动期暴露而不是请求期
	cfg = createDefaultConfig()
	cfg.MySQL.Host = ""
	assert.Error(t, cfg.Validate())
}

func TestGetModelForTask(t *testing.T) {
	cfg := createDefaultConfig()
	cfg.Aliyun.Model = "qwen-plus"
	cfg.Aliyun.TaskModels = map[string]string{"analyzer": "qwen-max"}

	assert.Equal(t, "qwen-max", cfg.GetModelForTask("analyzer"))
	assert.Equal(t, "qwen-plus", cfg.GetModelForTask("classifier"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Second))
	assert.Equal(t, time.Second, GetDuration("", time.Second))
	assert.Equal(t, time.Second, GetDuration("bogus", time.Second))
}
