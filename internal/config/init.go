package config

import (
	"os"

	"github.com/google/renameio/v2"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
)

const exampleConfig = `# steptimer configuration. ${VAR} references are expanded from the environment
# (and from a .env file in the working directory).
storage:
  path: steptimer.db
logging:
  level: info
  format: text
engine:
  tick: 1s
  adjust_step: 1m
  # go_back_on_notifier: true
api:
  # "off" disables the HTTP API.
  listen: 127.0.0.1:8089
metrics:
  enabled: false
  namespace: steptimer
nats:
  # Leave empty to disable broadcasting.
  url: ""
  subject_prefix: steptimer
  kv_bucket: steptimer_state
  retry:
    backoff: exponential
    initial: 200ms
    max: 5s
    max_retries: 3
speech:
  # For example: espeak with args ["-v", "en", "{text}"]
  command: ""
schedule:
  timezone: Local
locale: en
`

// Init writes an example configuration file. An existing file is only replaced with force.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.AlreadyExistsError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}
	if err := renameio.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return errors.FileSystemError("failed to write config file").
			WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}
