package config

// Service roles.
const (
	RoleFrontend = "frontend"
	RoleBackend  = "backend"
)

// Config is the complete stack configuration.
type Config struct {
	// Project is the project name used as the prefix of every resource name.
	Project string `yaml:"project"`

	// Environment distinguishes stacks of the same project (dev, stage, prod).
	Environment string `yaml:"environment"`

	// Region is the AWS region to deploy into.
	Region string `yaml:"region"`

	// Abbreviation replaces the project name when a resource name would
	// exceed its provider length limit. Derived from Project when empty.
	Abbreviation string `yaml:"abbreviation,omitempty"`

	Network  NetworkConfig  `yaml:"network"`
	Frontend ServiceConfig  `yaml:"frontend"`
	Backend  ServiceConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	State    StateConfig    `yaml:"state,omitempty"`

	// Tags are added to every resource in addition to the standard tags.
	Tags map[string]string `yaml:"tags,omitempty"`
}

// NetworkConfig defines the VPC layout.
type NetworkConfig struct {
	VPCCIDR           string   `yaml:"vpc_cidr"`
	AvailabilityZones []string `yaml:"availability_zones"`
}

// ServiceConfig sizes one Fargate service.
type ServiceConfig struct {
	Image string `yaml:"image"`

	// CPU in CPU units (256 = 0.25 vCPU) and Memory in MiB, as Fargate expects.
	CPU    int `yaml:"cpu"`
	Memory int `yaml:"memory"`

	Port         int    `yaml:"port"`
	HealthPath   string `yaml:"health_path"`
	DesiredCount int    `yaml:"desired_count"`

	// Scaling thresholds for target tracking on average CPU.
	MinCapacity int     `yaml:"min_capacity"`
	MaxCapacity int     `yaml:"max_capacity"`
	CPUTarget   float64 `yaml:"cpu_target"`

	// Environment holds plain environment variables for the container.
	Environment map[string]string `yaml:"environment,omitempty"`
}

// DatabaseConfig sizes the PostgreSQL instance.
type DatabaseConfig struct {
	InstanceClass    string `yaml:"instance_class"`
	EngineVersion    string `yaml:"engine_version"`
	AllocatedStorage int    `yaml:"allocated_storage"`
	Name             string `yaml:"name"`
	Username         string `yaml:"username"`
	MultiAZ          bool   `yaml:"multi_az"`
	// BackupRetentionDays: nil means the default, 0 disables automated
	// backups.
	BackupRetentionDays *int `yaml:"backup_retention_days"`
}

// BackupRetention returns the configured backup retention in days.
func (d *DatabaseConfig) BackupRetention() int {
	if d.BackupRetentionDays == nil {
		return DefaultBackupRetention
	}
	return *d.BackupRetentionDays
}

// LoggingConfig configures CloudWatch log groups.
type LoggingConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// StateConfig points at the S3 bucket that stores stack outputs.
// Outputs are only written locally when Bucket is empty.
type StateConfig struct {
	Bucket string `yaml:"bucket,omitempty"`
}

// Service returns the configuration of the service with the given role.
func (c *Config) Service(role string) *ServiceConfig {
	if role == RoleBackend {
		return &c.Backend
	}
	return &c.Frontend
}
