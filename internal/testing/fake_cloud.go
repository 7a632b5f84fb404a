package testing

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/smithy-go"

	"github.com/tierstack/tierstack/internal/platform/aws"
)

// Resource types tracked by FakeCloud.
const (
	TypeVPC             = "vpc"
	TypeInternetGateway = "internet-gateway"
	TypeSubnet          = "subnet"
	TypeAddress         = "elastic-ip"
	TypeNATGateway      = "nat-gateway"
	TypeRouteTable      = "route-table"
	TypeSecurityGroup   = "security-group"
	TypeSecret          = "secret"
	TypeDBSubnetGroup   = "db-subnet-group"
	TypeDBInstance      = "db-instance"
	TypeRole            = "role"
	TypeLogGroup        = "log-group"
	TypeLoadBalancer    = "load-balancer"
	TypeTargetGroup     = "target-group"
	TypeListener        = "listener"
	TypeCluster         = "cluster"
	TypeTaskDefinition  = "task-definition"
	TypeService         = "service"
	TypeScaling         = "scaling"
)

const fakeAccount = "000000000000"

// FakeResource is one resource held by FakeCloud.
type FakeResource struct {
	Type string
	Name string
	ID   string
	ARN  string

	// Uses holds the IDs and ARNs this resource references. AWS refuses to
	// delete a resource that another one still uses, and so does FakeCloud.
	Uses []string

	Tags map[string]string

	// Spec is the options the resource was last ensured with.
	Spec any
}

// FakeCloud is an in-memory aws.InfrastructureManager. It is safe for
// concurrent use, records every call and enforces the delete ordering AWS
// enforces through dependency violations.
type FakeCloud struct {
	Region string

	mu        sync.Mutex
	seq       int
	calls     []string
	failures  map[string]error
	resources map[string]map[string]*FakeResource
	secrets   map[string]*aws.Credentials
	ingress   map[string][]aws.IngressPermission
	revisions map[string][]string
}

var _ aws.InfrastructureManager = (*FakeCloud)(nil)

// NewFakeCloud returns an empty fake account in region.
func NewFakeCloud(region string) *FakeCloud {
	return &FakeCloud{
		Region:    region,
		failures:  make(map[string]error),
		resources: make(map[string]map[string]*FakeResource),
		secrets:   make(map[string]*aws.Credentials),
		ingress:   make(map[string][]aws.IngressPermission),
		revisions: make(map[string][]string),
	}
}

// FailOn makes every later call of method return err. A nil err clears it.
func (f *FakeCloud) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

// Calls returns the recorded calls as "Method name".
func (f *FakeCloud) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallCount returns how often method was called.
func (f *FakeCloud) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method || strings.HasPrefix(c, method+" ") {
			n++
		}
	}
	return n
}

// Get returns a resource by type and name.
func (f *FakeCloud) Get(typ, name string) (*FakeResource, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[typ][name]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// Names returns the names of all resources of a type, sorted.
func (f *FakeCloud) Names(typ string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.resources[typ]))
	for name := range f.resources[typ] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of resources of a type.
func (f *FakeCloud) Count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resources[typ])
}

// Total returns the number of resources of all types.
func (f *FakeCloud) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, byName := range f.resources {
		n += len(byName)
	}
	return n
}

// Ingress returns the rules authorized on a security group.
func (f *FakeCloud) Ingress(groupID string) []aws.IngressPermission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.ingress[groupID])
}

// Revisions returns the registered task definition ARNs of a family.
func (f *FakeCloud) Revisions(family string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.revisions[family])
}

// record logs a call and returns the injected failure, if any. Callers
// hold the lock.
func (f *FakeCloud) record(method, name string) error {
	f.calls = append(f.calls, method+" "+name)
	if err, ok := f.failures[method]; ok {
		return err
	}
	return nil
}

func (f *FakeCloud) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%04d", prefix, f.seq)
}

func (f *FakeCloud) arn(service, resource string) string {
	return fmt.Sprintf("arn:aws:%s:%s:%s:%s", service, f.Region, fakeAccount, resource)
}

// put stores r unless a resource of that type and name exists, in which
// case the existing one is returned with its spec updated.
func (f *FakeCloud) put(r *FakeResource) *FakeResource {
	byName := f.resources[r.Type]
	if byName == nil {
		byName = make(map[string]*FakeResource)
		f.resources[r.Type] = byName
	}
	if existing, ok := byName[r.Name]; ok {
		existing.Spec = r.Spec
		return existing
	}
	r.Tags = maps.Clone(r.Tags)
	byName[r.Name] = r
	return r
}

// exists reports whether any resource has the given ID or ARN.
func (f *FakeCloud) exists(ref string) bool {
	for _, byName := range f.resources {
		for _, r := range byName {
			if r.ID == ref || r.ARN == ref {
				return true
			}
		}
	}
	return false
}

func (f *FakeCloud) requireRefs(refs ...string) error {
	for _, ref := range refs {
		if ref == "" || !f.exists(ref) {
			return apiError("InvalidParameterValue", fmt.Sprintf("referenced resource %q does not exist", ref))
		}
	}
	return nil
}

// remove deletes a resource unless another resource still uses it.
// Missing resources are not an error.
func (f *FakeCloud) remove(typ, name string) error {
	r, ok := f.resources[typ][name]
	if !ok {
		return nil
	}
	for _, byName := range f.resources {
		for _, other := range byName {
			if other == r {
				continue
			}
			for _, use := range other.Uses {
				if use == r.ID || (r.ARN != "" && use == r.ARN) {
					return apiError("DependencyViolation",
						fmt.Sprintf("%s %s is still used by %s %s", typ, name, other.Type, other.Name))
				}
			}
		}
	}
	delete(f.resources[typ], name)
	return nil
}

func apiError(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg}
}

// --- NetworkManager ---

// EnsureVPC implements aws.NetworkManager.
func (f *FakeCloud) EnsureVPC(_ context.Context, name, cidr string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureVPC", name); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{Type: TypeVPC, Name: name, ID: f.nextID("vpc"), Tags: tags, Spec: cidr})
	return r.ID, nil
}

// EnsureInternetGateway implements aws.NetworkManager.
func (f *FakeCloud) EnsureInternetGateway(_ context.Context, name, vpcID string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureInternetGateway", name); err != nil {
		return "", err
	}
	if err := f.requireRefs(vpcID); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{Type: TypeInternetGateway, Name: name, ID: f.nextID("igw"), Uses: []string{vpcID}, Tags: tags})
	return r.ID, nil
}

// EnsureSubnet implements aws.NetworkManager.
func (f *FakeCloud) EnsureSubnet(_ context.Context, opts aws.SubnetOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureSubnet", opts.Name); err != nil {
		return "", err
	}
	if err := f.requireRefs(opts.VPCID); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{Type: TypeSubnet, Name: opts.Name, ID: f.nextID("subnet"), Uses: []string{opts.VPCID}, Tags: opts.Tags, Spec: opts})
	return r.ID, nil
}

// EnsureElasticIP implements aws.NetworkManager.
func (f *FakeCloud) EnsureElasticIP(_ context.Context, name string, tags map[string]string) (*aws.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureElasticIP", name); err != nil {
		return nil, err
	}
	if r, ok := f.resources[TypeAddress][name]; ok {
		return &aws.Address{AllocationID: r.ID, PublicIP: r.Spec.(string)}, nil
	}
	id := f.nextID("eipalloc")
	ip := fmt.Sprintf("203.0.113.%d", f.seq%250+1)
	r := f.put(&FakeResource{Type: TypeAddress, Name: name, ID: id, Tags: tags, Spec: ip})
	return &aws.Address{AllocationID: r.ID, PublicIP: ip}, nil
}

// EnsureNATGateway implements aws.NetworkManager.
func (f *FakeCloud) EnsureNATGateway(_ context.Context, name, subnetID, allocationID string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureNATGateway", name); err != nil {
		return "", err
	}
	if err := f.requireRefs(subnetID, allocationID); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{Type: TypeNATGateway, Name: name, ID: f.nextID("nat"), Uses: []string{subnetID, allocationID}, Tags: tags})
	return r.ID, nil
}

// EnsureRouteTable implements aws.NetworkManager.
func (f *FakeCloud) EnsureRouteTable(_ context.Context, opts aws.RouteTableOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureRouteTable", opts.Name); err != nil {
		return "", err
	}
	if (opts.GatewayID == "") == (opts.NATGatewayID == "") {
		return "", apiError("InvalidParameterCombination", "exactly one of gateway and NAT gateway is required")
	}
	uses := append([]string{opts.VPCID, opts.GatewayID + opts.NATGatewayID}, opts.SubnetIDs...)
	if err := f.requireRefs(uses...); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{Type: TypeRouteTable, Name: opts.Name, ID: f.nextID("rtb"), Uses: uses, Tags: opts.Tags, Spec: opts})
	r.Uses = uses
	return r.ID, nil
}

// DeleteVPC implements aws.NetworkManager.
func (f *FakeCloud) DeleteVPC(_ context.Context, name string) error {
	return f.deleteCall("DeleteVPC", TypeVPC, name)
}

// DeleteInternetGateway implements aws.NetworkManager.
func (f *FakeCloud) DeleteInternetGateway(_ context.Context, name string) error {
	return f.deleteCall("DeleteInternetGateway", TypeInternetGateway, name)
}

// DeleteSubnet implements aws.NetworkManager.
func (f *FakeCloud) DeleteSubnet(_ context.Context, name string) error {
	return f.deleteCall("DeleteSubnet", TypeSubnet, name)
}

// ReleaseElasticIP implements aws.NetworkManager.
func (f *FakeCloud) ReleaseElasticIP(_ context.Context, name string) error {
	return f.deleteCall("ReleaseElasticIP", TypeAddress, name)
}

// DeleteNATGateway implements aws.NetworkManager.
func (f *FakeCloud) DeleteNATGateway(_ context.Context, name string) error {
	return f.deleteCall("DeleteNATGateway", TypeNATGateway, name)
}

// DeleteRouteTable implements aws.NetworkManager.
func (f *FakeCloud) DeleteRouteTable(_ context.Context, name string) error {
	return f.deleteCall("DeleteRouteTable", TypeRouteTable, name)
}

func (f *FakeCloud) deleteCall(method, typ, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(method, name); err != nil {
		return err
	}
	return f.remove(typ, name)
}

// --- SecurityGroupManager ---

// EnsureSecurityGroup implements aws.SecurityGroupManager.
func (f *FakeCloud) EnsureSecurityGroup(_ context.Context, name, vpcID, description string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureSecurityGroup", name); err != nil {
		return "", err
	}
	if err := f.requireRefs(vpcID); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{Type: TypeSecurityGroup, Name: name, ID: f.nextID("sg"), Uses: []string{vpcID}, Tags: tags, Spec: description})
	return r.ID, nil
}

// AuthorizeIngress implements aws.SecurityGroupManager. Identical rules
// are stored once.
func (f *FakeCloud) AuthorizeIngress(_ context.Context, groupID string, rules []aws.IngressPermission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AuthorizeIngress", groupID); err != nil {
		return err
	}
	group := f.findByID(TypeSecurityGroup, groupID)
	if group == nil {
		return apiError("InvalidGroup.NotFound", "security group "+groupID+" does not exist")
	}
	for _, rule := range rules {
		if rule.SourceGroupID != "" {
			if f.findByID(TypeSecurityGroup, rule.SourceGroupID) == nil {
				return apiError("InvalidGroup.NotFound", "source group "+rule.SourceGroupID+" does not exist")
			}
			if !slices.Contains(group.Uses, rule.SourceGroupID) {
				group.Uses = append(group.Uses, rule.SourceGroupID)
			}
		}
		if !slices.Contains(f.ingress[groupID], rule) {
			f.ingress[groupID] = append(f.ingress[groupID], rule)
		}
	}
	return nil
}

func (f *FakeCloud) findByID(typ, id string) *FakeResource {
	for _, r := range f.resources[typ] {
		if r.ID == id || r.ARN == id {
			return r
		}
	}
	return nil
}

// DeleteSecurityGroup implements aws.SecurityGroupManager.
func (f *FakeCloud) DeleteSecurityGroup(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteSecurityGroup", name); err != nil {
		return err
	}
	r, ok := f.resources[TypeSecurityGroup][name]
	if !ok {
		return nil
	}
	if err := f.remove(TypeSecurityGroup, name); err != nil {
		return err
	}
	delete(f.ingress, r.ID)
	return nil
}

// --- SecretManager ---

// EnsureSecret implements aws.SecretManager. The generated password is
// deterministic and kept for an existing secret.
func (f *FakeCloud) EnsureSecret(_ context.Context, opts aws.SecretOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureSecret", opts.Name); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{
		Type: TypeSecret,
		Name: opts.Name,
		ID:   opts.Name,
		ARN:  f.arn("secretsmanager", "secret:"+opts.Name+"-AbCdEf"),
		Tags: opts.Tags,
		Spec: opts,
	})
	if _, ok := f.secrets[opts.Name]; !ok {
		f.secrets[opts.Name] = &aws.Credentials{
			Username: opts.Username,
			Password: strings.Repeat("p", max(opts.PasswordLength, 1)),
			Engine:   opts.Engine,
		}
	}
	return r.ARN, nil
}

// GetCredentials implements aws.SecretManager.
func (f *FakeCloud) GetCredentials(_ context.Context, name string) (*aws.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetCredentials", name); err != nil {
		return nil, err
	}
	creds, ok := f.secrets[name]
	if !ok {
		return nil, apiError("ResourceNotFoundException", "secret "+name+" not found")
	}
	cp := *creds
	return &cp, nil
}

// PutCredentials implements aws.SecretManager.
func (f *FakeCloud) PutCredentials(_ context.Context, name string, creds *aws.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PutCredentials", name); err != nil {
		return "", err
	}
	r, ok := f.resources[TypeSecret][name]
	if !ok {
		return "", apiError("ResourceNotFoundException", "secret "+name+" not found")
	}
	cp := *creds
	f.secrets[name] = &cp
	return r.ARN, nil
}

// Secret returns the stored credentials of a secret.
func (f *FakeCloud) Secret(name string) (*aws.Credentials, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	creds, ok := f.secrets[name]
	if !ok {
		return nil, false
	}
	cp := *creds
	return &cp, true
}

// DeleteSecret implements aws.SecretManager.
func (f *FakeCloud) DeleteSecret(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteSecret", name); err != nil {
		return err
	}
	if err := f.remove(TypeSecret, name); err != nil {
		return err
	}
	delete(f.secrets, name)
	return nil
}

// --- DatabaseManager ---

// EnsureDBSubnetGroup implements aws.DatabaseManager.
func (f *FakeCloud) EnsureDBSubnetGroup(_ context.Context, name, _ string, subnetIDs []string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureDBSubnetGroup", name); err != nil {
		return "", err
	}
	if err := f.requireRefs(subnetIDs...); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{Type: TypeDBSubnetGroup, Name: name, ID: name, Uses: slices.Clone(subnetIDs), Tags: tags})
	return r.ID, nil
}

// EnsureDBInstance implements aws.DatabaseManager.
func (f *FakeCloud) EnsureDBInstance(_ context.Context, opts aws.DBInstanceOpts) (*aws.DBInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureDBInstance", opts.Identifier); err != nil {
		return nil, err
	}
	if opts.Password == "" {
		return nil, apiError("InvalidParameterValue", "master password is required")
	}
	uses := append([]string{opts.SubnetGroupName}, opts.SecurityGroupIDs...)
	if err := f.requireRefs(uses...); err != nil {
		return nil, err
	}
	r := f.put(&FakeResource{
		Type: TypeDBInstance,
		Name: opts.Identifier,
		ID:   opts.Identifier,
		ARN:  f.arn("rds", "db:"+opts.Identifier),
		Uses: uses,
		Tags: opts.Tags,
		Spec: opts,
	})
	return &aws.DBInstance{
		ARN:     r.ARN,
		Address: fmt.Sprintf("%s.abc123.%s.rds.amazonaws.com", opts.Identifier, f.Region),
		Port:    opts.Port,
	}, nil
}

// DeleteDBSubnetGroup implements aws.DatabaseManager.
func (f *FakeCloud) DeleteDBSubnetGroup(_ context.Context, name string) error {
	return f.deleteCall("DeleteDBSubnetGroup", TypeDBSubnetGroup, name)
}

// DeleteDBInstance implements aws.DatabaseManager.
func (f *FakeCloud) DeleteDBInstance(_ context.Context, identifier string) error {
	return f.deleteCall("DeleteDBInstance", TypeDBInstance, identifier)
}

// --- IdentityManager ---

// EnsureExecutionRole implements aws.IdentityManager.
func (f *FakeCloud) EnsureExecutionRole(_ context.Context, name string, secretARNs []string, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureExecutionRole", name); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{
		Type: TypeRole,
		Name: name,
		ID:   name,
		ARN:  fmt.Sprintf("arn:aws:iam::%s:role/%s", fakeAccount, name),
		Tags: tags,
		Spec: slices.Clone(secretARNs),
	})
	return r.ARN, nil
}

// DeleteRole implements aws.IdentityManager.
func (f *FakeCloud) DeleteRole(_ context.Context, name string) error {
	return f.deleteCall("DeleteRole", TypeRole, name)
}

// --- LogManager ---

// EnsureLogGroup implements aws.LogManager.
func (f *FakeCloud) EnsureLogGroup(_ context.Context, name string, retentionDays int, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureLogGroup", name); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{
		Type: TypeLogGroup,
		Name: name,
		ID:   name,
		ARN:  f.arn("logs", "log-group:"+name),
		Tags: tags,
		Spec: retentionDays,
	})
	return r.ARN, nil
}

// DeleteLogGroup implements aws.LogManager.
func (f *FakeCloud) DeleteLogGroup(_ context.Context, name string) error {
	return f.deleteCall("DeleteLogGroup", TypeLogGroup, name)
}

// --- LoadBalancerManager ---

// EnsureLoadBalancer implements aws.LoadBalancerManager.
func (f *FakeCloud) EnsureLoadBalancer(_ context.Context, opts aws.LoadBalancerOpts) (*aws.LoadBalancer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureLoadBalancer", opts.Name); err != nil {
		return nil, err
	}
	uses := append(slices.Clone(opts.SubnetIDs), opts.SecurityGroupIDs...)
	if err := f.requireRefs(uses...); err != nil {
		return nil, err
	}
	id := f.nextID("lb")
	r := f.put(&FakeResource{
		Type: TypeLoadBalancer,
		Name: opts.Name,
		ID:   id,
		ARN:  f.arn("elasticloadbalancing", "loadbalancer/app/"+opts.Name+"/"+id),
		Uses: uses,
		Tags: opts.Tags,
		Spec: opts,
	})
	dns := fmt.Sprintf("%s-123456.%s.elb.amazonaws.com", opts.Name, f.Region)
	if opts.Internal {
		dns = "internal-" + dns
	}
	return &aws.LoadBalancer{ARN: r.ARN, DNSName: dns}, nil
}

// EnsureTargetGroup implements aws.LoadBalancerManager.
func (f *FakeCloud) EnsureTargetGroup(_ context.Context, opts aws.TargetGroupOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureTargetGroup", opts.Name); err != nil {
		return "", err
	}
	if err := f.requireRefs(opts.VPCID); err != nil {
		return "", err
	}
	id := f.nextID("tg")
	r := f.put(&FakeResource{
		Type: TypeTargetGroup,
		Name: opts.Name,
		ID:   id,
		ARN:  f.arn("elasticloadbalancing", "targetgroup/"+opts.Name+"/"+id),
		Uses: []string{opts.VPCID},
		Tags: opts.Tags,
		Spec: opts,
	})
	return r.ARN, nil
}

// EnsureListener implements aws.LoadBalancerManager. Listeners are named
// "<load balancer ARN>:<port>".
func (f *FakeCloud) EnsureListener(_ context.Context, loadBalancerARN, targetGroupARN string, port int, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := loadBalancerARN + ":" + strconv.Itoa(port)
	if err := f.record("EnsureListener", name); err != nil {
		return "", err
	}
	if err := f.requireRefs(loadBalancerARN, targetGroupARN); err != nil {
		return "", err
	}
	id := f.nextID("listener")
	r := f.put(&FakeResource{
		Type: TypeListener,
		Name: name,
		ID:   id,
		ARN:  f.arn("elasticloadbalancing", "listener/"+id),
		Uses: []string{loadBalancerARN, targetGroupARN},
		Tags: tags,
		Spec: targetGroupARN,
	})
	r.Uses = []string{loadBalancerARN, targetGroupARN}
	return r.ARN, nil
}

// DeleteLoadBalancer implements aws.LoadBalancerManager. Deleting a load
// balancer deletes its listeners, as in AWS.
func (f *FakeCloud) DeleteLoadBalancer(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteLoadBalancer", name); err != nil {
		return err
	}
	lb, ok := f.resources[TypeLoadBalancer][name]
	if !ok {
		return nil
	}
	for lname := range f.resources[TypeListener] {
		if strings.HasPrefix(lname, lb.ARN+":") {
			delete(f.resources[TypeListener], lname)
		}
	}
	return f.remove(TypeLoadBalancer, name)
}

// DeleteTargetGroup implements aws.LoadBalancerManager.
func (f *FakeCloud) DeleteTargetGroup(_ context.Context, name string) error {
	return f.deleteCall("DeleteTargetGroup", TypeTargetGroup, name)
}

// DeleteListener implements aws.LoadBalancerManager.
func (f *FakeCloud) DeleteListener(_ context.Context, loadBalancerName string, port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteListener", loadBalancerName+":"+strconv.Itoa(port)); err != nil {
		return err
	}
	lb, ok := f.resources[TypeLoadBalancer][loadBalancerName]
	if !ok {
		return nil
	}
	return f.remove(TypeListener, lb.ARN+":"+strconv.Itoa(port))
}

// --- ContainerManager ---

// EnsureCluster implements aws.ContainerManager.
func (f *FakeCloud) EnsureCluster(_ context.Context, name string, containerInsights bool, tags map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureCluster", name); err != nil {
		return "", err
	}
	r := f.put(&FakeResource{
		Type: TypeCluster,
		Name: name,
		ID:   name,
		ARN:  f.arn("ecs", "cluster/"+name),
		Tags: tags,
		Spec: containerInsights,
	})
	return r.ARN, nil
}

// RegisterTaskDefinition implements aws.ContainerManager. A new revision
// is only registered when the options changed.
func (f *FakeCloud) RegisterTaskDefinition(_ context.Context, opts aws.TaskDefinitionOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RegisterTaskDefinition", opts.Family); err != nil {
		return "", err
	}
	refs := []string{opts.ExecutionRoleARN}
	for _, arn := range opts.Secrets {
		refs = append(refs, arn)
	}
	if err := f.requireRefs(refs...); err != nil {
		return "", err
	}

	fingerprint := aws.Fingerprint(opts)
	if existing, ok := f.resources[TypeTaskDefinition][opts.Family]; ok && existing.ID == fingerprint {
		return existing.ARN, nil
	}

	revision := len(f.revisions[opts.Family]) + 1
	arn := f.arn("ecs", fmt.Sprintf("task-definition/%s:%d", opts.Family, revision))
	f.revisions[opts.Family] = append(f.revisions[opts.Family], arn)

	delete(f.resources[TypeTaskDefinition], opts.Family)
	f.put(&FakeResource{
		Type: TypeTaskDefinition,
		Name: opts.Family,
		ID:   fingerprint,
		ARN:  arn,
		Tags: opts.Tags,
		Spec: opts,
	})
	return arn, nil
}

// EnsureService implements aws.ContainerManager.
func (f *FakeCloud) EnsureService(_ context.Context, opts aws.ServiceOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureService", opts.Name); err != nil {
		return "", err
	}
	cluster := f.findByID(TypeCluster, opts.Cluster)
	if cluster == nil {
		if c, ok := f.resources[TypeCluster][opts.Cluster]; ok {
			cluster = c
		}
	}
	if cluster == nil {
		return "", apiError("ClusterNotFoundException", "cluster "+opts.Cluster+" not found")
	}
	if !slices.Contains(f.revisions[familyOf(opts.TaskDefinitionARN)], opts.TaskDefinitionARN) {
		return "", apiError("ClientException", "task definition "+opts.TaskDefinitionARN+" not found")
	}
	uses := append([]string{cluster.ID, opts.TargetGroupARN}, opts.SubnetIDs...)
	uses = append(uses, opts.SecurityGroupIDs...)
	if err := f.requireRefs(uses...); err != nil {
		return "", err
	}

	key := serviceKey(cluster.Name, opts.Name)
	r := f.put(&FakeResource{
		Type: TypeService,
		Name: key,
		ID:   key,
		ARN:  f.arn("ecs", "service/"+key),
		Uses: uses,
		Tags: opts.Tags,
		Spec: opts,
	})
	return r.ARN, nil
}

// Service returns the options a service was last ensured with.
func (f *FakeCloud) Service(cluster, name string) (aws.ServiceOpts, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[TypeService][serviceKey(cluster, name)]
	if !ok {
		return aws.ServiceOpts{}, false
	}
	return r.Spec.(aws.ServiceOpts), true
}

// TaskDefinition returns the options of the latest revision of a family.
func (f *FakeCloud) TaskDefinition(family string) (aws.TaskDefinitionOpts, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[TypeTaskDefinition][family]
	if !ok {
		return aws.TaskDefinitionOpts{}, false
	}
	return r.Spec.(aws.TaskDefinitionOpts), true
}

func serviceKey(cluster, name string) string { return cluster + "/" + name }

// familyOf extracts the family from a task definition ARN.
func familyOf(arn string) string {
	i := strings.LastIndex(arn, "/")
	j := strings.LastIndex(arn, ":")
	if i < 0 || j < i {
		return ""
	}
	return arn[i+1 : j]
}

// DeleteCluster implements aws.ContainerManager.
func (f *FakeCloud) DeleteCluster(_ context.Context, name string) error {
	return f.deleteCall("DeleteCluster", TypeCluster, name)
}

// DeregisterTaskDefinitions implements aws.ContainerManager.
func (f *FakeCloud) DeregisterTaskDefinitions(_ context.Context, family string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeregisterTaskDefinitions", family); err != nil {
		return err
	}
	delete(f.revisions, family)
	delete(f.resources[TypeTaskDefinition], family)
	return nil
}

// DeleteService implements aws.ContainerManager.
func (f *FakeCloud) DeleteService(_ context.Context, cluster, name string) error {
	return f.deleteCall("DeleteService", TypeService, serviceKey(cluster, name))
}

// --- ScalingManager ---

// EnsureScaling implements aws.ScalingManager.
func (f *FakeCloud) EnsureScaling(_ context.Context, opts aws.ScalingOpts) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnsureScaling", opts.PolicyName); err != nil {
		return "", err
	}
	svc, ok := f.resources[TypeService][serviceKey(opts.Cluster, opts.Service)]
	if !ok {
		return "", apiError("ObjectNotFoundException", "service "+opts.Service+" not found")
	}
	if opts.MinCapacity > opts.MaxCapacity {
		return "", apiError("ValidationException", "min capacity exceeds max capacity")
	}
	r := f.put(&FakeResource{
		Type: TypeScaling,
		Name: opts.PolicyName,
		ID:   aws.ScalingResourceID(opts.Cluster, opts.Service),
		ARN:  f.arn("autoscaling", "scalingPolicy:"+opts.PolicyName),
		Uses: []string{svc.ID},
		Spec: opts,
	})
	return r.ARN, nil
}

// DeleteScaling implements aws.ScalingManager.
func (f *FakeCloud) DeleteScaling(_ context.Context, _, _, policyName string) error {
	return f.deleteCall("DeleteScaling", TypeScaling, policyName)
}
