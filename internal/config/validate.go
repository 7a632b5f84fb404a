package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

var projectPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)

// maxProjectLength keeps {project}-{environment}-{suffix} readable; longer
// names still work through abbreviation, but rarely fit.
const maxProjectLength = 32

// fargateMemory lists valid memory sizes (MiB) per Fargate CPU value.
var fargateMemory = map[int][]int{
	256:  {512, 1024, 2048},
	512:  rangeStep(1024, 4096, 1024),
	1024: rangeStep(2048, 8192, 1024),
	2048: rangeStep(4096, 16384, 1024),
	4096: rangeStep(8192, 30720, 1024),
}

// logRetentionDays lists the retention values CloudWatch Logs accepts.
var logRetentionDays = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 14: true, 30: true, 60: true, 90: true,
	120: true, 150: true, 180: true, 365: true, 400: true, 545: true, 731: true,
	1096: true, 1827: true, 2192: true, 2557: true, 2922: true, 3288: true, 3653: true,
}

func rangeStep(from, to, step int) []int {
	var out []int
	for v := from; v <= to; v += step {
		out = append(out, v)
	}
	return out
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() error {
	var errs []error

	if err := validateProject(c.Project); err != nil {
		errs = append(errs, err)
	}
	if c.Environment == "" {
		errs = append(errs, errors.New("environment is required"))
	} else if err := validateName("environment", c.Environment, 0); err != nil {
		errs = append(errs, err)
	}
	if c.Abbreviation != "" {
		if err := validateName("abbreviation", c.Abbreviation, maxProjectLength); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}

	if err := c.validateNetwork(); err != nil {
		errs = append(errs, fmt.Errorf("network: %w", err))
	}
	for _, role := range []string{RoleFrontend, RoleBackend} {
		if err := c.Service(role).validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", role, err))
		}
	}
	if c.Frontend.Port == c.Backend.Port {
		// Both services share nothing at runtime, but distinct ports keep the
		// security group rules unambiguous.
		errs = append(errs, fmt.Errorf("frontend and backend must use different ports (both %d)", c.Frontend.Port))
	}
	if err := c.Database.validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if !logRetentionDays[c.Logging.RetentionDays] {
		errs = append(errs, fmt.Errorf("logging: retention_days %d is not a CloudWatch retention value", c.Logging.RetentionDays))
	}

	return errors.Join(errs...)
}

func isSingleLetter(s string) bool {
	return len(s) == 1 && s[0] >= 'a' && s[0] <= 'z'
}

func validateProject(name string) error {
	if name == "" {
		return errors.New("project is required")
	}
	return validateName("project", name, maxProjectLength)
}

// validateName applies the rules every name segment shares: it ends up in
// load balancer, RDS and IAM identifiers, which allow only letters, digits
// and single hyphens. maxLen <= 0 means no length limit.
func validateName(field, name string, maxLen int) error {
	switch {
	case maxLen > 0 && len(name) > maxLen:
		return fmt.Errorf("%s %q is longer than %d characters", field, name, maxLen)
	case !projectPattern.MatchString(name) && !isSingleLetter(name):
		return fmt.Errorf("%s %q must start with a letter and contain only lowercase letters, digits and hyphens", field, name)
	case strings.Contains(name, "--"):
		return fmt.Errorf("%s %q must not contain consecutive hyphens", field, name)
	}
	return nil
}

func (c *Config) validateNetwork() error {
	_, ipNet, err := net.ParseCIDR(c.Network.VPCCIDR)
	if err != nil {
		return fmt.Errorf("invalid vpc_cidr %q: %w", c.Network.VPCCIDR, err)
	}
	if ipNet.IP.To4() == nil {
		return fmt.Errorf("vpc_cidr %q must be IPv4", c.Network.VPCCIDR)
	}
	if ones, _ := ipNet.Mask.Size(); ones < 16 || ones > 20 {
		return fmt.Errorf("vpc_cidr %q must have a prefix between /16 and /20", c.Network.VPCCIDR)
	}
	if len(c.Network.AvailabilityZones) < 2 {
		return fmt.Errorf("at least two availability_zones are required, got %d", len(c.Network.AvailabilityZones))
	}
	seen := make(map[string]bool)
	for _, az := range c.Network.AvailabilityZones {
		if !strings.HasPrefix(az, c.Region) {
			return fmt.Errorf("availability zone %q is not in region %q", az, c.Region)
		}
		if seen[az] {
			return fmt.Errorf("availability zone %q listed twice", az)
		}
		seen[az] = true
	}
	return nil
}

func (s *ServiceConfig) validate() error {
	if s.Image == "" {
		return errors.New("image is required")
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port %d out of range", s.Port)
	}
	if !strings.HasPrefix(s.HealthPath, "/") {
		return fmt.Errorf("health_path %q must start with /", s.HealthPath)
	}
	mems, ok := fargateMemory[s.CPU]
	if !ok {
		return fmt.Errorf("cpu %d is not a Fargate CPU value", s.CPU)
	}
	if !containsInt(mems, s.Memory) {
		return fmt.Errorf("memory %d is not valid for cpu %d", s.Memory, s.CPU)
	}
	if s.MinCapacity < 1 {
		return fmt.Errorf("min_capacity must be at least 1, got %d", s.MinCapacity)
	}
	if s.DesiredCount < s.MinCapacity || s.DesiredCount > s.MaxCapacity {
		return fmt.Errorf("desired_count %d must be between min_capacity %d and max_capacity %d",
			s.DesiredCount, s.MinCapacity, s.MaxCapacity)
	}
	if s.CPUTarget <= 0 || s.CPUTarget > 100 {
		return fmt.Errorf("cpu_target %.1f must be in (0, 100]", s.CPUTarget)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	if !strings.HasPrefix(d.InstanceClass, "db.") {
		return fmt.Errorf("instance_class %q must start with db.", d.InstanceClass)
	}
	if d.AllocatedStorage < 20 {
		return fmt.Errorf("allocated_storage must be at least 20 GiB, got %d", d.AllocatedStorage)
	}
	if days := d.BackupRetention(); days < 0 || days > 35 {
		return fmt.Errorf("backup_retention_days %d must be between 0 and 35", days)
	}
	if d.Username == "postgres" || d.Username == "admin" {
		return fmt.Errorf("username %q is reserved", d.Username)
	}
	if !identifierPattern.MatchString(d.Username) {
		return fmt.Errorf("username %q must start with a letter and contain only letters, digits and underscores", d.Username)
	}
	if !identifierPattern.MatchString(d.Name) {
		return fmt.Errorf("name %q must start with a letter and contain only letters, digits and underscores", d.Name)
	}
	return nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,62}$`)

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
