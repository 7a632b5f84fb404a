package aws

import (
	"errors"
	"strings"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
)

// errorCode returns the AWS error code of err, or "" when err is not an
// API error.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func hasCode(err error, codes ...string) bool {
	code := errorCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if code == c {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means the resource does not exist.
// EC2 reports missing resources as <Resource>.NotFound or
// <Resource>NotFound, the other services mostly as typed faults.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var rnf *smtypes.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return true
	}
	var dbnf *rdstypes.DBInstanceNotFoundFault
	if errors.As(err, &dbnf) {
		return true
	}
	var sgnf *rdstypes.DBSubnetGroupNotFoundFault
	if errors.As(err, &sgnf) {
		return true
	}

	code := errorCode(err)
	return strings.HasSuffix(code, "NotFound") ||
		strings.HasSuffix(code, "NotFoundFault") ||
		strings.HasSuffix(code, "NotFoundException") ||
		hasCode(err, "NoSuchEntity", "ResourceNotFoundException", "ObjectNotFoundException")
}

// IsAlreadyExists reports whether err means the resource or rule already
// exists.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var exists *smtypes.ResourceExistsException
	if errors.As(err, &exists) {
		return true
	}
	code := errorCode(err)
	return strings.Contains(code, "AlreadyExists") ||
		strings.HasSuffix(code, ".Duplicate") ||
		hasCode(err, "ResourceExistsException", "DuplicateLoadBalancerName",
			"DuplicateTargetGroupName", "DuplicateListener", "Resource.AlreadyAssociated")
}

// IsDependencyViolation reports whether err means the resource is still
// used by another one. These errors clear up once the dependent resource
// is gone, so deletes retry them.
func IsDependencyViolation(err error) bool {
	return hasCode(err,
		"DependencyViolation",
		"ResourceInUse",
		"ResourceInUseException",
		"InvalidIPAddress.InUse",
		"DeleteConflict",
		"InvalidDBInstanceState",
		"InvalidDBSubnetGroupStateFault",
		"ClusterContainsServicesException",
		"ClusterContainsTasksException",
	)
}

// IsThrottled reports whether err is a rate limit error.
func IsThrottled(err error) bool {
	return hasCode(err, "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException")
}

// IsEventualConsistency reports errors AWS returns right after a resource
// was created and is not yet visible to a dependent call, such as an IAM
// role ECS cannot assume yet.
func IsEventualConsistency(err error) bool {
	if IsThrottled(err) {
		return true
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := apiErr.ErrorMessage()
	return strings.Contains(msg, "unable to assume") ||
		strings.Contains(msg, "does not have an associated load balancer")
}
