package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/tierstack/tierstack/internal/util/retry"
)

const (
	dbStatusAvailable = "available"
	dbStatusDeleting  = "deleting"
	dbStorageType     = "gp3"
)

// EnsureDBSubnetGroup ensures the subnet group exists and returns its name.
func (c *RealClient) EnsureDBSubnetGroup(ctx context.Context, name, description string, subnetIDs []string, tags map[string]string) (string, error) {
	_, err := c.rds.DescribeDBSubnetGroups(ctx, &rds.DescribeDBSubnetGroupsInput{DBSubnetGroupName: aws.String(name)})
	if err == nil {
		return name, nil
	}
	if !IsNotFound(err) {
		return "", fmt.Errorf("failed to describe db subnet group %s: %w", name, err)
	}

	_, err = c.rds.CreateDBSubnetGroup(ctx, &rds.CreateDBSubnetGroupInput{
		DBSubnetGroupName:        aws.String(name),
		DBSubnetGroupDescription: aws.String(description),
		SubnetIds:                subnetIDs,
		Tags:                     rdsTags(tags),
	})
	if err != nil && !IsAlreadyExists(err) {
		return "", fmt.Errorf("failed to create db subnet group %s: %w", name, err)
	}
	return name, nil
}

// DeleteDBSubnetGroup deletes the subnet group once no instance uses it.
func (c *RealClient) DeleteDBSubnetGroup(ctx context.Context, name string) error {
	return c.deleteWithRetry(ctx, "db subnet group", name, func(ctx context.Context) error {
		_, err := c.rds.DeleteDBSubnetGroup(ctx, &rds.DeleteDBSubnetGroupInput{DBSubnetGroupName: aws.String(name)})
		return err
	})
}

// EnsureDBInstance creates the instance when missing and waits until it is
// available. The instance is encrypted and never publicly accessible.
func (c *RealClient) EnsureDBInstance(ctx context.Context, opts DBInstanceOpts) (*DBInstance, error) {
	existing, err := c.findDBInstance(ctx, opts.Identifier)
	if err != nil {
		return nil, err
	}
	if existing != nil && aws.ToString(existing.DBInstanceStatus) == dbStatusDeleting {
		return nil, fmt.Errorf("db instance %s is being deleted, retry once the deletion finished", opts.Identifier)
	}

	if existing == nil {
		// #nosec G115
		_, err := c.rds.CreateDBInstance(ctx, &rds.CreateDBInstanceInput{
			DBInstanceIdentifier:  aws.String(opts.Identifier),
			DBInstanceClass:       aws.String(opts.InstanceClass),
			Engine:                aws.String(opts.Engine),
			EngineVersion:         aws.String(opts.EngineVersion),
			AllocatedStorage:      aws.Int32(int32(opts.AllocatedStorage)),
			StorageType:           aws.String(dbStorageType),
			StorageEncrypted:      aws.Bool(true),
			DBName:                aws.String(opts.DatabaseName),
			MasterUsername:        aws.String(opts.Username),
			MasterUserPassword:    aws.String(opts.Password),
			Port:                  aws.Int32(int32(opts.Port)),
			MultiAZ:               aws.Bool(opts.MultiAZ),
			BackupRetentionPeriod: aws.Int32(int32(opts.BackupRetentionDays)),
			DBSubnetGroupName:     aws.String(opts.SubnetGroupName),
			VpcSecurityGroupIds:   opts.SecurityGroupIDs,
			PubliclyAccessible:    aws.Bool(false),
			CopyTagsToSnapshot:    aws.Bool(true),
			Tags:                  rdsTags(opts.Tags),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create db instance %s: %w", opts.Identifier, err)
		}
	}

	var available *rdstypes.DBInstance
	err = retry.Poll(ctx, c.timeouts.PollInterval, c.timeouts.DatabaseCreate, func(ctx context.Context) (bool, error) {
		db, err := c.findDBInstance(ctx, opts.Identifier)
		if err != nil {
			return false, err
		}
		if db == nil {
			return false, fmt.Errorf("db instance %s disappeared", opts.Identifier)
		}
		if aws.ToString(db.DBInstanceStatus) != dbStatusAvailable || db.Endpoint == nil {
			return false, nil
		}
		available = db
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to wait for db instance %s: %w", opts.Identifier, err)
	}

	return &DBInstance{
		ARN:     aws.ToString(available.DBInstanceArn),
		Address: aws.ToString(available.Endpoint.Address),
		Port:    int(aws.ToInt32(available.Endpoint.Port)),
	}, nil
}

func (c *RealClient) findDBInstance(ctx context.Context, identifier string) (*rdstypes.DBInstance, error) {
	out, err := c.rds.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{DBInstanceIdentifier: aws.String(identifier)})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe db instance %s: %w", identifier, err)
	}
	if len(out.DBInstances) == 0 {
		return nil, nil
	}
	return &out.DBInstances[0], nil
}

// DeleteDBInstance deletes the instance without a final snapshot and waits
// until it is gone.
func (c *RealClient) DeleteDBInstance(ctx context.Context, identifier string) error {
	db, err := c.findDBInstance(ctx, identifier)
	if err != nil || db == nil {
		return err
	}

	if aws.ToString(db.DBInstanceStatus) != dbStatusDeleting {
		err := c.deleteWithRetry(ctx, "db instance", identifier, func(ctx context.Context) error {
			_, err := c.rds.DeleteDBInstance(ctx, &rds.DeleteDBInstanceInput{
				DBInstanceIdentifier:   aws.String(identifier),
				SkipFinalSnapshot:      aws.Bool(true),
				DeleteAutomatedBackups: aws.Bool(true),
			})
			return err
		})
		if err != nil {
			return err
		}
	}

	return retry.Poll(ctx, c.timeouts.PollInterval, c.timeouts.Delete, func(ctx context.Context) (bool, error) {
		db, err := c.findDBInstance(ctx, identifier)
		return db == nil, err
	})
}
