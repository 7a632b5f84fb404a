package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elb "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/tierstack/tierstack/internal/util/retry"
)

// Target group health check settings.
const (
	healthCheckInterval = 30
	healthyThreshold    = 2
	unhealthyThreshold  = 3
	healthCheckMatcher  = "200"
)

// EnsureLoadBalancer ensures an application load balancer exists and waits
// until it is active.
func (c *RealClient) EnsureLoadBalancer(ctx context.Context, opts LoadBalancerOpts) (*LoadBalancer, error) {
	lb, err := c.findLoadBalancer(ctx, opts.Name)
	if err != nil {
		return nil, err
	}

	if lb == nil {
		scheme := elbtypes.LoadBalancerSchemeEnumInternetFacing
		if opts.Internal {
			scheme = elbtypes.LoadBalancerSchemeEnumInternal
		}
		out, err := c.elb.CreateLoadBalancer(ctx, &elb.CreateLoadBalancerInput{
			Name:           aws.String(opts.Name),
			Subnets:        opts.SubnetIDs,
			SecurityGroups: opts.SecurityGroupIDs,
			Scheme:         scheme,
			Type:           elbtypes.LoadBalancerTypeEnumApplication,
			IpAddressType:  elbtypes.IpAddressTypeIpv4,
			Tags:           elbTags(opts.Tags),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create load balancer %s: %w", opts.Name, err)
		}
		if len(out.LoadBalancers) == 0 {
			return nil, fmt.Errorf("create load balancer %s returned no load balancer", opts.Name)
		}
		lb = &out.LoadBalancers[0]
	} else if lb.Scheme != "" && (lb.Scheme == elbtypes.LoadBalancerSchemeEnumInternal) != opts.Internal {
		return nil, fmt.Errorf("load balancer %s exists with scheme %s", opts.Name, lb.Scheme)
	}

	arn := aws.ToString(lb.LoadBalancerArn)
	waiter := elb.NewLoadBalancerAvailableWaiter(c.elb)
	if err := waiter.Wait(ctx, &elb.DescribeLoadBalancersInput{LoadBalancerArns: []string{arn}}, c.timeouts.LoadBalancer); err != nil {
		return nil, fmt.Errorf("failed to wait for load balancer %s: %w", opts.Name, err)
	}

	return &LoadBalancer{ARN: arn, DNSName: aws.ToString(lb.DNSName)}, nil
}

func (c *RealClient) findLoadBalancer(ctx context.Context, name string) (*elbtypes.LoadBalancer, error) {
	out, err := c.elb.DescribeLoadBalancers(ctx, &elb.DescribeLoadBalancersInput{Names: []string{name}})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe load balancer %s: %w", name, err)
	}
	if len(out.LoadBalancers) == 0 {
		return nil, nil
	}
	return &out.LoadBalancers[0], nil
}

// DeleteLoadBalancer deletes the load balancer and waits until it is gone,
// which releases its network interfaces in the subnets.
func (c *RealClient) DeleteLoadBalancer(ctx context.Context, name string) error {
	lb, err := c.findLoadBalancer(ctx, name)
	if err != nil || lb == nil {
		return err
	}
	if _, err := c.elb.DeleteLoadBalancer(ctx, &elb.DeleteLoadBalancerInput{LoadBalancerArn: lb.LoadBalancerArn}); err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete load balancer %s: %w", name, err)
	}
	return retry.Poll(ctx, c.timeouts.PollInterval, c.timeouts.Delete, func(ctx context.Context) (bool, error) {
		lb, err := c.findLoadBalancer(ctx, name)
		return lb == nil, err
	})
}

// EnsureTargetGroup ensures an HTTP target group of IP targets exists.
func (c *RealClient) EnsureTargetGroup(ctx context.Context, opts TargetGroupOpts) (string, error) {
	tg, err := c.findTargetGroup(ctx, opts.Name)
	if err != nil {
		return "", err
	}
	if tg != nil {
		if got := int(aws.ToInt32(tg.Port)); got != opts.Port {
			return "", fmt.Errorf("target group %s exists with port %d (expected %d)", opts.Name, got, opts.Port)
		}
		return aws.ToString(tg.TargetGroupArn), nil
	}

	// #nosec G115
	out, err := c.elb.CreateTargetGroup(ctx, &elb.CreateTargetGroupInput{
		Name:                       aws.String(opts.Name),
		Protocol:                   elbtypes.ProtocolEnumHttp,
		Port:                       aws.Int32(int32(opts.Port)),
		VpcId:                      aws.String(opts.VPCID),
		TargetType:                 elbtypes.TargetTypeEnumIp,
		HealthCheckProtocol:        elbtypes.ProtocolEnumHttp,
		HealthCheckPath:            aws.String(opts.HealthPath),
		HealthCheckIntervalSeconds: aws.Int32(healthCheckInterval),
		HealthyThresholdCount:      aws.Int32(healthyThreshold),
		UnhealthyThresholdCount:    aws.Int32(unhealthyThreshold),
		Matcher:                    &elbtypes.Matcher{HttpCode: aws.String(healthCheckMatcher)},
		Tags:                       elbTags(opts.Tags),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create target group %s: %w", opts.Name, err)
	}
	if len(out.TargetGroups) == 0 {
		return "", fmt.Errorf("create target group %s returned no target group", opts.Name)
	}
	return aws.ToString(out.TargetGroups[0].TargetGroupArn), nil
}

func (c *RealClient) findTargetGroup(ctx context.Context, name string) (*elbtypes.TargetGroup, error) {
	out, err := c.elb.DescribeTargetGroups(ctx, &elb.DescribeTargetGroupsInput{Names: []string{name}})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe target group %s: %w", name, err)
	}
	if len(out.TargetGroups) == 0 {
		return nil, nil
	}
	return &out.TargetGroups[0], nil
}

// DeleteTargetGroup deletes the target group once no listener uses it.
func (c *RealClient) DeleteTargetGroup(ctx context.Context, name string) error {
	tg, err := c.findTargetGroup(ctx, name)
	if err != nil || tg == nil {
		return err
	}
	return c.deleteWithRetry(ctx, "target group", name, func(ctx context.Context) error {
		_, err := c.elb.DeleteTargetGroup(ctx, &elb.DeleteTargetGroupInput{TargetGroupArn: tg.TargetGroupArn})
		return err
	})
}

// EnsureListener ensures an HTTP listener on port forwards to the target
// group.
func (c *RealClient) EnsureListener(ctx context.Context, loadBalancerARN, targetGroupARN string, port int, tags map[string]string) (string, error) {
	listener, err := c.findListener(ctx, loadBalancerARN, port)
	if err != nil {
		return "", err
	}
	actions := []elbtypes.Action{{
		Type:           elbtypes.ActionTypeEnumForward,
		TargetGroupArn: aws.String(targetGroupARN),
	}}

	if listener != nil {
		if forwardsTo(listener, targetGroupARN) {
			return aws.ToString(listener.ListenerArn), nil
		}
		if _, err := c.elb.ModifyListener(ctx, &elb.ModifyListenerInput{
			ListenerArn:    listener.ListenerArn,
			DefaultActions: actions,
		}); err != nil {
			return "", fmt.Errorf("failed to repoint listener on port %d: %w", port, err)
		}
		return aws.ToString(listener.ListenerArn), nil
	}

	// #nosec G115
	out, err := c.elb.CreateListener(ctx, &elb.CreateListenerInput{
		LoadBalancerArn: aws.String(loadBalancerARN),
		Port:            aws.Int32(int32(port)),
		Protocol:        elbtypes.ProtocolEnumHttp,
		DefaultActions:  actions,
		Tags:            elbTags(tags),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create listener on port %d: %w", port, err)
	}
	if len(out.Listeners) == 0 {
		return "", fmt.Errorf("create listener on port %d returned no listener", port)
	}
	return aws.ToString(out.Listeners[0].ListenerArn), nil
}

func forwardsTo(l *elbtypes.Listener, targetGroupARN string) bool {
	for _, a := range l.DefaultActions {
		if a.Type == elbtypes.ActionTypeEnumForward && aws.ToString(a.TargetGroupArn) == targetGroupARN {
			return true
		}
	}
	return false
}

func (c *RealClient) findListener(ctx context.Context, loadBalancerARN string, port int) (*elbtypes.Listener, error) {
	out, err := c.elb.DescribeListeners(ctx, &elb.DescribeListenersInput{LoadBalancerArn: aws.String(loadBalancerARN)})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe listeners: %w", err)
	}
	for i := range out.Listeners {
		if int(aws.ToInt32(out.Listeners[i].Port)) == port {
			return &out.Listeners[i], nil
		}
	}
	return nil, nil
}

// DeleteListener deletes the listener on port of the named load balancer.
func (c *RealClient) DeleteListener(ctx context.Context, loadBalancerName string, port int) error {
	lb, err := c.findLoadBalancer(ctx, loadBalancerName)
	if err != nil || lb == nil {
		return err
	}
	listener, err := c.findListener(ctx, aws.ToString(lb.LoadBalancerArn), port)
	if err != nil || listener == nil {
		return err
	}
	if _, err := c.elb.DeleteListener(ctx, &elb.DeleteListenerInput{ListenerArn: listener.ListenerArn}); err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete listener on %s:%d: %w", loadBalancerName, port, err)
	}
	return nil
}
