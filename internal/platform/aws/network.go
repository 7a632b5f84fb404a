package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/tierstack/tierstack/internal/util/retry"
)

const defaultRoute = "0.0.0.0/0"

// EnsureVPC ensures a VPC with DNS hostnames enabled exists.
func (c *RealClient) EnsureVPC(ctx context.Context, name, cidr string, tags map[string]string) (string, error) {
	vpc, err := c.findVPC(ctx, name)
	if err != nil {
		return "", err
	}
	if vpc != nil {
		if got := aws.ToString(vpc.CidrBlock); got != cidr {
			return "", fmt.Errorf("vpc %s exists with CIDR %s (expected %s)", name, got, cidr)
		}
		return aws.ToString(vpc.VpcId), nil
	}

	out, err := c.ec2.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         aws.String(cidr),
		TagSpecifications: ec2TagSpec(ec2types.ResourceTypeVpc, tags),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create vpc %s: %w", name, err)
	}
	id := aws.ToString(out.Vpc.VpcId)

	// Only one attribute may be modified per call.
	for _, in := range []*ec2.ModifyVpcAttributeInput{
		{VpcId: aws.String(id), EnableDnsSupport: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)}},
		{VpcId: aws.String(id), EnableDnsHostnames: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)}},
	} {
		if _, err := c.ec2.ModifyVpcAttribute(ctx, in); err != nil {
			return "", fmt.Errorf("failed to enable dns on vpc %s: %w", name, err)
		}
	}
	return id, nil
}

func (c *RealClient) findVPC(ctx context.Context, name string) (*ec2types.Vpc, error) {
	out, err := c.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{Filters: nameFilter(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe vpc %s: %w", name, err)
	}
	if len(out.Vpcs) == 0 {
		return nil, nil
	}
	return &out.Vpcs[0], nil
}

// DeleteVPC deletes the VPC once nothing inside it remains.
func (c *RealClient) DeleteVPC(ctx context.Context, name string) error {
	vpc, err := c.findVPC(ctx, name)
	if err != nil || vpc == nil {
		return err
	}
	return c.deleteWithRetry(ctx, "vpc", name, func(ctx context.Context) error {
		_, err := c.ec2.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: vpc.VpcId})
		return err
	})
}

// EnsureInternetGateway ensures a gateway exists and is attached to vpcID.
func (c *RealClient) EnsureInternetGateway(ctx context.Context, name, vpcID string, tags map[string]string) (string, error) {
	igw, err := c.findInternetGateway(ctx, name)
	if err != nil {
		return "", err
	}

	if igw == nil {
		out, err := c.ec2.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{
			TagSpecifications: ec2TagSpec(ec2types.ResourceTypeInternetGateway, tags),
		})
		if err != nil {
			return "", fmt.Errorf("failed to create internet gateway %s: %w", name, err)
		}
		igw = out.InternetGateway
	}
	id := aws.ToString(igw.InternetGatewayId)

	for _, att := range igw.Attachments {
		if aws.ToString(att.VpcId) == vpcID {
			return id, nil
		}
	}
	if _, err := c.ec2.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: aws.String(id),
		VpcId:             aws.String(vpcID),
	}); err != nil {
		return "", fmt.Errorf("failed to attach internet gateway %s: %w", name, err)
	}
	return id, nil
}

func (c *RealClient) findInternetGateway(ctx context.Context, name string) (*ec2types.InternetGateway, error) {
	out, err := c.ec2.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{Filters: nameFilter(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe internet gateway %s: %w", name, err)
	}
	if len(out.InternetGateways) == 0 {
		return nil, nil
	}
	return &out.InternetGateways[0], nil
}

// DeleteInternetGateway detaches and deletes the gateway. Detaching fails
// while public addresses are still mapped in the VPC, so it is retried.
func (c *RealClient) DeleteInternetGateway(ctx context.Context, name string) error {
	igw, err := c.findInternetGateway(ctx, name)
	if err != nil || igw == nil {
		return err
	}
	for _, att := range igw.Attachments {
		err := c.deleteWithRetry(ctx, "internet gateway attachment", name, func(ctx context.Context) error {
			_, err := c.ec2.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
				InternetGatewayId: igw.InternetGatewayId,
				VpcId:             att.VpcId,
			})
			if hasCode(err, "Gateway.NotAttached") {
				return nil
			}
			return err
		})
		if err != nil {
			return err
		}
	}
	return c.deleteWithRetry(ctx, "internet gateway", name, func(ctx context.Context) error {
		_, err := c.ec2.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{InternetGatewayId: igw.InternetGatewayId})
		return err
	})
}

// EnsureSubnet ensures a subnet exists with the given CIDR and zone.
func (c *RealClient) EnsureSubnet(ctx context.Context, opts SubnetOpts) (string, error) {
	subnet, err := c.findSubnet(ctx, opts.Name)
	if err != nil {
		return "", err
	}
	if subnet != nil {
		if got := aws.ToString(subnet.CidrBlock); got != opts.CIDR {
			return "", fmt.Errorf("subnet %s exists with CIDR %s (expected %s)", opts.Name, got, opts.CIDR)
		}
		return aws.ToString(subnet.SubnetId), nil
	}

	out, err := c.ec2.CreateSubnet(ctx, &ec2.CreateSubnetInput{
		VpcId:             aws.String(opts.VPCID),
		CidrBlock:         aws.String(opts.CIDR),
		AvailabilityZone:  aws.String(opts.AvailabilityZone),
		TagSpecifications: ec2TagSpec(ec2types.ResourceTypeSubnet, opts.Tags),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create subnet %s: %w", opts.Name, err)
	}
	id := aws.ToString(out.Subnet.SubnetId)

	if opts.Public {
		if _, err := c.ec2.ModifySubnetAttribute(ctx, &ec2.ModifySubnetAttributeInput{
			SubnetId:            aws.String(id),
			MapPublicIpOnLaunch: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
		}); err != nil {
			return "", fmt.Errorf("failed to enable public IPs on subnet %s: %w", opts.Name, err)
		}
	}
	return id, nil
}

func (c *RealClient) findSubnet(ctx context.Context, name string) (*ec2types.Subnet, error) {
	out, err := c.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{Filters: nameFilter(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe subnet %s: %w", name, err)
	}
	if len(out.Subnets) == 0 {
		return nil, nil
	}
	return &out.Subnets[0], nil
}

// DeleteSubnet deletes the subnet, waiting for ENIs of deleted load
// balancers and tasks to be released.
func (c *RealClient) DeleteSubnet(ctx context.Context, name string) error {
	subnet, err := c.findSubnet(ctx, name)
	if err != nil || subnet == nil {
		return err
	}
	return c.deleteWithRetry(ctx, "subnet", name, func(ctx context.Context) error {
		_, err := c.ec2.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: subnet.SubnetId})
		return err
	})
}

// EnsureElasticIP ensures an Elastic IP tagged with name is allocated.
func (c *RealClient) EnsureElasticIP(ctx context.Context, name string, tags map[string]string) (*Address, error) {
	addr, err := c.findAddress(ctx, name)
	if err != nil {
		return nil, err
	}
	if addr != nil {
		return &Address{AllocationID: aws.ToString(addr.AllocationId), PublicIP: aws.ToString(addr.PublicIp)}, nil
	}

	out, err := c.ec2.AllocateAddress(ctx, &ec2.AllocateAddressInput{
		Domain:            ec2types.DomainTypeVpc,
		TagSpecifications: ec2TagSpec(ec2types.ResourceTypeElasticIp, tags),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate elastic ip %s: %w", name, err)
	}
	return &Address{AllocationID: aws.ToString(out.AllocationId), PublicIP: aws.ToString(out.PublicIp)}, nil
}

func (c *RealClient) findAddress(ctx context.Context, name string) (*ec2types.Address, error) {
	out, err := c.ec2.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{Filters: nameFilter(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe elastic ip %s: %w", name, err)
	}
	if len(out.Addresses) == 0 {
		return nil, nil
	}
	return &out.Addresses[0], nil
}

// ReleaseElasticIP releases the address once the NAT gateway let go of it.
func (c *RealClient) ReleaseElasticIP(ctx context.Context, name string) error {
	addr, err := c.findAddress(ctx, name)
	if err != nil || addr == nil {
		return err
	}
	return c.deleteWithRetry(ctx, "elastic ip", name, func(ctx context.Context) error {
		_, err := c.ec2.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{AllocationId: addr.AllocationId})
		return err
	})
}

// EnsureNATGateway ensures a public NAT gateway exists and is available.
func (c *RealClient) EnsureNATGateway(ctx context.Context, name, subnetID, allocationID string, tags map[string]string) (string, error) {
	nat, err := c.findNATGateway(ctx, name)
	if err != nil {
		return "", err
	}

	var id string
	if nat != nil {
		id = aws.ToString(nat.NatGatewayId)
	} else {
		out, err := c.ec2.CreateNatGateway(ctx, &ec2.CreateNatGatewayInput{
			SubnetId:          aws.String(subnetID),
			AllocationId:      aws.String(allocationID),
			ConnectivityType:  ec2types.ConnectivityTypePublic,
			TagSpecifications: ec2TagSpec(ec2types.ResourceTypeNatgateway, tags),
		})
		if err != nil {
			return "", fmt.Errorf("failed to create nat gateway %s: %w", name, err)
		}
		id = aws.ToString(out.NatGateway.NatGatewayId)
	}

	err = retry.Poll(ctx, c.timeouts.PollInterval, c.timeouts.NATGateway, func(ctx context.Context) (bool, error) {
		state, err := c.natGatewayState(ctx, id)
		if err != nil {
			return false, err
		}
		switch state {
		case ec2types.NatGatewayStateAvailable:
			return true, nil
		case ec2types.NatGatewayStateFailed, ec2types.NatGatewayStateDeleted, ec2types.NatGatewayStateDeleting:
			return false, fmt.Errorf("nat gateway %s is %s", name, state)
		default:
			return false, nil
		}
	})
	if err != nil {
		return "", fmt.Errorf("failed to wait for nat gateway %s: %w", name, err)
	}
	return id, nil
}

// findNATGateway ignores gateways that are deleted or being deleted, which
// keep their tags for about an hour.
func (c *RealClient) findNATGateway(ctx context.Context, name string) (*ec2types.NatGateway, error) {
	filters := append(nameFilter(name), ec2types.Filter{
		Name:   aws.String("state"),
		Values: []string{string(ec2types.NatGatewayStatePending), string(ec2types.NatGatewayStateAvailable)},
	})
	out, err := c.ec2.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{Filter: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to describe nat gateway %s: %w", name, err)
	}
	if len(out.NatGateways) == 0 {
		return nil, nil
	}
	return &out.NatGateways[0], nil
}

func (c *RealClient) natGatewayState(ctx context.Context, id string) (ec2types.NatGatewayState, error) {
	out, err := c.ec2.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{NatGatewayIds: []string{id}})
	if err != nil {
		if IsNotFound(err) {
			return ec2types.NatGatewayStateDeleted, nil
		}
		return "", err
	}
	if len(out.NatGateways) == 0 {
		return ec2types.NatGatewayStateDeleted, nil
	}
	return out.NatGateways[0].State, nil
}

// DeleteNATGateway deletes the gateway and waits until it is gone.
func (c *RealClient) DeleteNATGateway(ctx context.Context, name string) error {
	nat, err := c.findNATGateway(ctx, name)
	if err != nil || nat == nil {
		return err
	}
	if _, err := c.ec2.DeleteNatGateway(ctx, &ec2.DeleteNatGatewayInput{NatGatewayId: nat.NatGatewayId}); err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete nat gateway %s: %w", name, err)
	}

	id := aws.ToString(nat.NatGatewayId)
	return retry.Poll(ctx, c.timeouts.PollInterval, c.timeouts.Delete, func(ctx context.Context) (bool, error) {
		state, err := c.natGatewayState(ctx, id)
		if err != nil {
			return false, err
		}
		return state == ec2types.NatGatewayStateDeleted, nil
	})
}

// EnsureRouteTable ensures a route table with a default route to the given
// gateway exists and is associated with every subnet in opts.
func (c *RealClient) EnsureRouteTable(ctx context.Context, opts RouteTableOpts) (string, error) {
	if (opts.GatewayID == "") == (opts.NATGatewayID == "") {
		return "", fmt.Errorf("route table %s needs exactly one of internet gateway and nat gateway", opts.Name)
	}

	rt, err := c.findRouteTable(ctx, opts.Name)
	if err != nil {
		return "", err
	}
	if rt == nil {
		out, err := c.ec2.CreateRouteTable(ctx, &ec2.CreateRouteTableInput{
			VpcId:             aws.String(opts.VPCID),
			TagSpecifications: ec2TagSpec(ec2types.ResourceTypeRouteTable, opts.Tags),
		})
		if err != nil {
			return "", fmt.Errorf("failed to create route table %s: %w", opts.Name, err)
		}
		rt = out.RouteTable
	}
	id := aws.ToString(rt.RouteTableId)

	if err := c.ensureDefaultRoute(ctx, rt, opts); err != nil {
		return "", err
	}

	associated := make(map[string]bool)
	for _, assoc := range rt.Associations {
		associated[aws.ToString(assoc.SubnetId)] = true
	}
	for _, subnetID := range opts.SubnetIDs {
		if associated[subnetID] {
			continue
		}
		_, err := c.ec2.AssociateRouteTable(ctx, &ec2.AssociateRouteTableInput{
			RouteTableId: aws.String(id),
			SubnetId:     aws.String(subnetID),
		})
		if err != nil && !IsAlreadyExists(err) {
			return "", fmt.Errorf("failed to associate route table %s with %s: %w", opts.Name, subnetID, err)
		}
	}
	return id, nil
}

func (c *RealClient) ensureDefaultRoute(ctx context.Context, rt *ec2types.RouteTable, opts RouteTableOpts) error {
	for _, route := range rt.Routes {
		if aws.ToString(route.DestinationCidrBlock) != defaultRoute {
			continue
		}
		if aws.ToString(route.GatewayId) == opts.GatewayID && aws.ToString(route.NatGatewayId) == opts.NATGatewayID {
			return nil
		}
		_, err := c.ec2.ReplaceRoute(ctx, &ec2.ReplaceRouteInput{
			RouteTableId:         rt.RouteTableId,
			DestinationCidrBlock: aws.String(defaultRoute),
			GatewayId:            optional(opts.GatewayID),
			NatGatewayId:         optional(opts.NATGatewayID),
		})
		if err != nil {
			return fmt.Errorf("failed to replace default route of %s: %w", opts.Name, err)
		}
		return nil
	}

	_, err := c.ec2.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:         rt.RouteTableId,
		DestinationCidrBlock: aws.String(defaultRoute),
		GatewayId:            optional(opts.GatewayID),
		NatGatewayId:         optional(opts.NATGatewayID),
	})
	if err != nil && !IsAlreadyExists(err) {
		return fmt.Errorf("failed to create default route of %s: %w", opts.Name, err)
	}
	return nil
}

func (c *RealClient) findRouteTable(ctx context.Context, name string) (*ec2types.RouteTable, error) {
	out, err := c.ec2.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{Filters: nameFilter(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe route table %s: %w", name, err)
	}
	if len(out.RouteTables) == 0 {
		return nil, nil
	}
	return &out.RouteTables[0], nil
}

// DeleteRouteTable removes the subnet associations and deletes the table.
func (c *RealClient) DeleteRouteTable(ctx context.Context, name string) error {
	rt, err := c.findRouteTable(ctx, name)
	if err != nil || rt == nil {
		return err
	}
	for _, assoc := range rt.Associations {
		if aws.ToBool(assoc.Main) {
			continue
		}
		_, err := c.ec2.DisassociateRouteTable(ctx, &ec2.DisassociateRouteTableInput{
			AssociationId: assoc.RouteTableAssociationId,
		})
		if err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to disassociate route table %s: %w", name, err)
		}
	}
	return c.deleteWithRetry(ctx, "route table", name, func(ctx context.Context) error {
		_, err := c.ec2.DeleteRouteTable(ctx, &ec2.DeleteRouteTableInput{RouteTableId: rt.RouteTableId})
		return err
	})
}

// optional returns nil for an empty string so that unset SDK fields are
// omitted from the request.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
