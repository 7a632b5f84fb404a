package config

// Defaults applied to unset fields.
const (
	DefaultVPCCIDR          = "10.0.0.0/16"
	DefaultCPU              = 256
	DefaultMemory           = 512
	DefaultFrontendPort     = 3000
	DefaultBackendPort      = 8000
	DefaultDesiredCount     = 1
	DefaultMinCapacity      = 1
	DefaultMaxCapacity      = 4
	DefaultCPUTarget        = 70
	DefaultInstanceClass    = "db.t3.micro"
	DefaultEngineVersion    = "16.4"
	DefaultAllocatedStorage = 20
	DefaultDatabaseName     = "appdb"
	DefaultDatabaseUsername = "dbadmin"
	DefaultBackupRetention  = 7
	DefaultLogRetentionDays = 7
)

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Network.VPCCIDR == "" {
		c.Network.VPCCIDR = DefaultVPCCIDR
	}
	if len(c.Network.AvailabilityZones) == 0 && c.Region != "" {
		c.Network.AvailabilityZones = []string{c.Region + "a", c.Region + "b"}
	}

	applyServiceDefaults(&c.Frontend, DefaultFrontendPort, "/health")
	applyServiceDefaults(&c.Backend, DefaultBackendPort, "/health")

	db := &c.Database
	if db.InstanceClass == "" {
		db.InstanceClass = DefaultInstanceClass
	}
	if db.EngineVersion == "" {
		db.EngineVersion = DefaultEngineVersion
	}
	if db.AllocatedStorage == 0 {
		db.AllocatedStorage = DefaultAllocatedStorage
	}
	if db.Name == "" {
		db.Name = DefaultDatabaseName
	}
	if db.Username == "" {
		db.Username = DefaultDatabaseUsername
	}
	if db.BackupRetentionDays == nil {
		days := DefaultBackupRetention
		db.BackupRetentionDays = &days
	}

	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = DefaultLogRetentionDays
	}
}

func applyServiceDefaults(s *ServiceConfig, port int, healthPath string) {
	if s.CPU == 0 {
		s.CPU = DefaultCPU
	}
	if s.Memory == 0 {
		s.Memory = DefaultMemory
	}
	if s.Port == 0 {
		s.Port = port
	}
	if s.HealthPath == "" {
		s.HealthPath = healthPath
	}
	if s.DesiredCount == 0 {
		s.DesiredCount = DefaultDesiredCount
	}
	if s.MinCapacity == 0 {
		s.MinCapacity = DefaultMinCapacity
	}
	if s.MaxCapacity == 0 {
		s.MaxCapacity = DefaultMaxCapacity
	}
	if s.CPUTarget == 0 {
		s.CPUTarget = DefaultCPUTarget
	}
}

// Sample returns the configuration written by tierctl init.
func Sample(project, environment, region string) *Config {
	cfg := &Config{
		Project:     project,
		Environment: environment,
		Region:      region,
		Frontend: ServiceConfig{
			Image: "public.ecr.aws/tierstack/frontend:latest",
		},
		Backend: ServiceConfig{
			Image: "public.ecr.aws/tierstack/backend:latest",
		},
		Tags: map[string]string{"owner": "platform"},
	}
	cfg.ApplyDefaults()
	return cfg
}
