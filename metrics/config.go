package metrics

import (
	"time"

	"github.com/oasislabs/quorum-functions/config"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	cfgMetricsMode              = "metrics.mode"
	cfgMetricsPullAddr          = "metrics.pull.addr"
	cfgMetricsPullPort          = "metrics.pull.port"
	cfgMetricsPushAddr          = "metrics.push.addr"
	cfgMetricsPushJobName       = "metrics.push.job_name"
	cfgMetricsPushInstanceLabel = "metrics.push.instance_label"
	cfgMetricsPushInterval      = "metrics.push.interval"

	metricsModeNone = "none"
	metricsModePull = "pull"
	metricsModePush = "push"

	// seconds
	defaultPushInterval = 10
)

// MetricsConfig selects how the Prometheus metrics are exported.
// Lambda deployments use push since there is no long lived listener
type MetricsConfig struct {
	Mode              string
	PullAddr          string
	PullPort          string
	PushAddr          string
	PushJobName       string
	PushInstanceLabel string
	PushInterval      time.Duration
}

func (m *MetricsConfig) Log(fields log.Fields) {
	for key, value := range map[string]interface{}{
		cfgMetricsMode:              m.Mode,
		cfgMetricsPullAddr:          m.PullAddr,
		cfgMetricsPullPort:          m.PullPort,
		cfgMetricsPushAddr:          m.PushAddr,
		cfgMetricsPushJobName:       m.PushJobName,
		cfgMetricsPushInstanceLabel: m.PushInstanceLabel,
		cfgMetricsPushInterval:      m.PushInterval,
	} {
		fields.Add(key, value)
	}
}

func (m *MetricsConfig) Configure(v *viper.Viper) error {
	*m = MetricsConfig{
		Mode:              v.GetString(cfgMetricsMode),
		PullAddr:          v.GetString(cfgMetricsPullAddr),
		PullPort:          v.GetString(cfgMetricsPullPort),
		PushAddr:          v.GetString(cfgMetricsPushAddr),
		PushJobName:       v.GetString(cfgMetricsPushJobName),
		PushInstanceLabel: v.GetString(cfgMetricsPushInstanceLabel),
		PushInterval:      v.GetDuration(cfgMetricsPushInterval),
	}

	switch m.Mode {
	case "":
		m.Mode = metricsModeNone
	case metricsModeNone, metricsModePull:
	case metricsModePush:
		// checked in order so the reported key is deterministic
		for _, key := range []string{cfgMetricsPushAddr, cfgMetricsPushJobName, cfgMetricsPushInstanceLabel} {
			if len(v.GetString(key)) == 0 {
				return config.ErrKeyNotSet{Key: key}
			}
		}

		if m.PushInterval <= 0 {
			m.PushInterval = defaultPushInterval * time.Second
		}
	default:
		return config.ErrInvalidValue{
			Key:          cfgMetricsMode,
			InvalidValue: m.Mode,
			Values:       []string{metricsModeNone, metricsModePull, metricsModePush},
		}
	}

	return nil
}

func (m *MetricsConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	flags.String(cfgMetricsMode, metricsModeNone, "how metrics are exported. One of none, pull, push")
	flags.String(cfgMetricsPullAddr, "localhost", "address the metrics listener binds to in pull mode")
	flags.String(cfgMetricsPullPort, "7000", "port the metrics listener binds to in pull mode")
	flags.String(cfgMetricsPushAddr, "", "address of the push gateway")
	flags.String(cfgMetricsPushJobName, "", "job name used when pushing metrics")
	flags.String(cfgMetricsPushInstanceLabel, "", "instance label used when pushing metrics")
	flags.Duration(cfgMetricsPushInterval, defaultPushInterval*time.Second, "interval between metric pushes")
	return nil
}
