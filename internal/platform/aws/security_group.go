package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// EnsureSecurityGroup ensures a security group exists in vpcID.
func (c *RealClient) EnsureSecurityGroup(ctx context.Context, name, vpcID, description string, tags map[string]string) (string, error) {
	sg, err := c.findSecurityGroup(ctx, name)
	if err != nil {
		return "", err
	}
	if sg != nil {
		if got := aws.ToString(sg.VpcId); got != vpcID {
			return "", fmt.Errorf("security group %s exists in vpc %s (expected %s)", name, got, vpcID)
		}
		return aws.ToString(sg.GroupId), nil
	}

	out, err := c.ec2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:         aws.String(name),
		Description:       aws.String(description),
		VpcId:             aws.String(vpcID),
		TagSpecifications: ec2TagSpec(ec2types.ResourceTypeSecurityGroup, tags),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create security group %s: %w", name, err)
	}
	return aws.ToString(out.GroupId), nil
}

// AuthorizeIngress adds TCP ingress rules one at a time so that a rule that
// already exists does not prevent the others from being added.
func (c *RealClient) AuthorizeIngress(ctx context.Context, groupID string, rules []IngressPermission) error {
	for _, rule := range rules {
		_, err := c.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: []ec2types.IpPermission{ipPermission(rule)},
		})
		if err != nil && !IsAlreadyExists(err) {
			return fmt.Errorf("failed to authorize port %d on %s: %w", rule.Port, groupID, err)
		}
	}
	return nil
}

func ipPermission(rule IngressPermission) ec2types.IpPermission {
	// #nosec G115
	port := int32(rule.Port)
	perm := ec2types.IpPermission{
		IpProtocol: aws.String("tcp"),
		FromPort:   aws.Int32(port),
		ToPort:     aws.Int32(port),
	}
	if rule.CIDR != "" {
		perm.IpRanges = []ec2types.IpRange{{
			CidrIp:      aws.String(rule.CIDR),
			Description: optional(rule.Description),
		}}
	}
	if rule.SourceGroupID != "" {
		perm.UserIdGroupPairs = []ec2types.UserIdGroupPair{{
			GroupId:     aws.String(rule.SourceGroupID),
			Description: optional(rule.Description),
		}}
	}
	return perm
}

func (c *RealClient) findSecurityGroup(ctx context.Context, name string) (*ec2types.SecurityGroup, error) {
	out, err := c.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{Filters: nameFilter(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe security group %s: %w", name, err)
	}
	if len(out.SecurityGroups) == 0 {
		return nil, nil
	}
	return &out.SecurityGroups[0], nil
}

// DeleteSecurityGroup deletes the group. Groups referenced by other groups'
// rules or by ENIs are retried until those are gone.
func (c *RealClient) DeleteSecurityGroup(ctx context.Context, name string) error {
	sg, err := c.findSecurityGroup(ctx, name)
	if err != nil || sg == nil {
		return err
	}
	return c.deleteWithRetry(ctx, "security group", name, func(ctx context.Context) error {
		_, err := c.ec2.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: sg.GroupId})
		return err
	})
}
