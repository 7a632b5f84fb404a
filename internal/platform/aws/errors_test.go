package aws

import (
	"errors"
	"fmt"
	"testing"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: "test"}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"ec2 dotted", apiErr("InvalidVpcID.NotFound"), true},
		{"ec2 suffix", apiErr("NatGatewayNotFound"), true},
		{"elb", apiErr("LoadBalancerNotFound"), true},
		{"ecs", apiErr("ServiceNotFoundException"), true},
		{"rds fault code", apiErr("DBInstanceNotFound"), true},
		{"iam", apiErr("NoSuchEntity"), true},
		{"typed secrets", &smtypes.ResourceNotFoundException{}, true},
		{"typed rds", &rdstypes.DBInstanceNotFoundFault{}, true},
		{"typed rds subnet group", &rdstypes.DBSubnetGroupNotFoundFault{}, true},
		{"wrapped", fmt.Errorf("describe: %w", apiErr("InvalidSubnetID.NotFound")), true},
		{"other code", apiErr("DependencyViolation"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsAlreadyExists(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"ingress duplicate", apiErr("InvalidPermission.Duplicate"), true},
		{"log group", apiErr("ResourceAlreadyExistsException"), true},
		{"iam", apiErr("EntityAlreadyExists"), true},
		{"elb name", apiErr("DuplicateLoadBalancerName"), true},
		{"typed secret", &smtypes.ResourceExistsException{}, true},
		{"not found", apiErr("InvalidVpcID.NotFound"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsAlreadyExists(tt.err))
		})
	}
}

func TestIsDependencyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDependencyViolation(apiErr("DependencyViolation")))
	assert.True(t, IsDependencyViolation(apiErr("ResourceInUse")))
	assert.True(t, IsDependencyViolation(apiErr("DeleteConflict")))
	assert.True(t, IsDependencyViolation(apiErr("ClusterContainsServicesException")))
	assert.False(t, IsDependencyViolation(apiErr("InvalidVpcID.NotFound")))
	assert.False(t, IsDependencyViolation(errors.New("DependencyViolation")))
	assert.False(t, IsDependencyViolation(nil))
}

func TestIsEventualConsistency(t *testing.T) {
	t.Parallel()

	assumeErr := &smithy.GenericAPIError{
		Code:    "InvalidParameterException",
		Message: "ECS was unable to assume the role 'arn:aws:iam::123:role/x'",
	}
	lbErr := &smithy.GenericAPIError{
		Code:    "InvalidParameterException",
		Message: "The target group with targetGroupArn arn:x does not have an associated load balancer.",
	}

	assert.True(t, IsEventualConsistency(assumeErr))
	assert.True(t, IsEventualConsistency(lbErr))
	assert.True(t, IsEventualConsistency(apiErr("ThrottlingException")))
	assert.False(t, IsEventualConsistency(apiErr("InvalidParameterException")))
	assert.False(t, IsEventualConsistency(errors.New("unable to assume")))
}
