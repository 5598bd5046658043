package utils

const (
	// BaseConfigPath is the directory in the workload container holding the
	// radio stack configuration.
	BaseConfigPath = "/opt/oai-gnb/etc"

	// ConfigFileName is the name of the rendered radio stack configuration file.
	ConfigFileName = "gnb.conf"

	// ConfigFilePath is the full path the rendered configuration is pushed to.
	ConfigFilePath = BaseConfigPath + "/" + ConfigFileName

	// WorkloadBinary is the radio stack executable inside the workload container.
	WorkloadBinary = "/opt/oai-gnb/bin/nr-softmodem"

	// WorkloadFlags are the fixed flags passed to the radio stack after the
	// configuration file.
	WorkloadFlags = "--sa -E --rfsim --log_config.global_log_options level nocolor time"

	// ContainerName is the name of the workload container, and ServiceName the
	// name of the supervised process inside it.
	ContainerName = "cu"
	ServiceName   = "cu"

	// PebbleSocketFmt is the path (formatted with the container name) of the
	// supervisor socket mounted into the charm container.
	PebbleSocketFmt = "/charm/containers/%s/pebble.socket"

	// Relation names from metadata.yaml.
	N2RelationName = "fiveg-n2"
	F1RelationName = "fiveg-f1"

	// Default Service ports, overridable through charm configuration.
	DefaultS1CPort = 36412
	DefaultS1UPort = 2152
	DefaultX2CPort = 36422
	DefaultF1Port  = 2153

	// DeferredEventsStateKey is the unit state key holding the deferred event queue.
	DeferredEventsStateKey = "deferred-events"

	// AppNameLabel is the label used to select the workload pods.
	AppNameLabel = "app.kubernetes.io/name"
)
