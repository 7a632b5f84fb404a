package naming

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Provider length limits per resource type.
const (
	MaxLoadBalancer  = 32
	MaxTargetGroup   = 32
	MaxDBInstance    = 63
	MaxDBSubnetGroup = 255
	MaxRole          = 64
	MaxSecurityGroup = 255
	MaxCluster       = 255
	MaxService       = 255
	MaxTaskFamily    = 255
	MaxLogGroup      = 512
	MaxSecret        = 512
	MaxTagValue      = 256
	MaxPolicyName    = 256
)

const separators = "-_."

// Shorten returns prefix-suffix when it fits in maxLen (or maxLen <= 0).
// Otherwise the prefix is replaced by abbreviation, and if the result is
// still too long it is truncated to maxLen with trailing separators removed.
// An empty abbreviation is derived from the prefix with Abbreviate.
func Shorten(prefix, suffix, abbreviation string, maxLen int) string {
	full := join(prefix, suffix)
	if maxLen <= 0 || len(full) <= maxLen {
		return full
	}

	if abbreviation == "" {
		abbreviation = Abbreviate(prefix)
	}
	short := join(abbreviation, suffix)
	if len(short) <= maxLen {
		return short
	}

	cut := short[:runeBoundary(short, maxLen)]
	if trimmed := strings.TrimRight(cut, separators); trimmed != "" {
		return trimmed
	}
	return cut
}

// Abbreviate returns the lowercased first letter of every word in s, where
// words are separated by hyphens, underscores or dots. "agentic-fastapi-stack"
// becomes "afs".
func Abbreviate(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// runeBoundary returns the largest index <= n that does not split a
// multi-byte rune of s.
func runeBoundary(s string, n int) int {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "-" + b
	}
}

// Namer builds names for every resource of one stack.
type Namer struct {
	Project      string
	Environment  string
	Abbreviation string
}

// New creates a Namer. The abbreviation may be empty.
func New(project, environment, abbreviation string) Namer {
	return Namer{Project: project, Environment: environment, Abbreviation: abbreviation}
}

// Prefix returns {project}-{environment}.
func (n Namer) Prefix() string {
	return join(n.Project, n.Environment)
}

// shortPrefix is the abbreviation with the environment kept, so that
// shortened names of different environments still differ.
func (n Namer) shortPrefix() string {
	abbr := n.Abbreviation
	if abbr == "" {
		abbr = Abbreviate(n.Project)
	}
	return join(abbr, n.Environment)
}

// Resource returns a generic name for suffix limited to maxLen characters.
func (n Namer) Resource(suffix string, maxLen int) string {
	return Shorten(n.Prefix(), suffix, n.shortPrefix(), maxLen)
}

func (n Namer) VPC() string { return n.Resource("vpc", MaxTagValue) }

func (n Namer) InternetGateway() string { return n.Resource("igw", MaxTagValue) }

func (n Namer) Subnet(tier string, index int) string {
	return n.Resource(fmt.Sprintf("%s-%d", tier, index+1), MaxTagValue)
}

func (n Namer) ElasticIP() string { return n.Resource("nat-eip", MaxTagValue) }

func (n Namer) NATGateway() string { return n.Resource("nat", MaxTagValue) }

func (n Namer) RouteTable(tier string) string { return n.Resource(tier+"-rt", MaxTagValue) }

func (n Namer) SecurityGroup(role string) string { return n.Resource(role+"-sg", MaxSecurityGroup) }

func (n Namer) LoadBalancer(role string) string { return n.Resource(role+"-alb", MaxLoadBalancer) }

func (n Namer) TargetGroup(role string) string { return n.Resource(role+"-tg", MaxTargetGroup) }

func (n Namer) Listener(role string) string { return n.Resource(role+"-http", MaxTagValue) }

func (n Namer) DBSubnetGroup() string { return n.Resource("db-subnets", MaxDBSubnetGroup) }

// DBInstance returns the RDS identifier. RDS identifiers must start with a
// letter, which the project name validation guarantees.
func (n Namer) DBInstance() string { return n.Resource("postgres", MaxDBInstance) }

func (n Namer) Secret() string { return n.Resource("db-credentials", MaxSecret) }

func (n Namer) ExecutionRole() string { return n.Resource("ecs-execution", MaxRole) }

func (n Namer) Cluster() string { return n.Resource("cluster", MaxCluster) }

func (n Namer) Service(role string) string { return n.Resource(role, MaxService) }

func (n Namer) TaskFamily(role string) string { return n.Resource(role+"-task", MaxTaskFamily) }

func (n Namer) ScalingPolicy(role string) string { return n.Resource(role+"-cpu", MaxPolicyName) }

// LogGroup returns /ecs/{prefix}/{service}. Log group names allow 512
// characters, more than any validated project and environment produce.
func (n Namer) LogGroup(role string) string {
	return "/ecs/" + n.Prefix() + "/" + role
}

// OutputsKey is the object key of the stack outputs document.
func (n Namer) OutputsKey() string {
	return fmt.Sprintf("%s/outputs.json", n.Prefix())
}
