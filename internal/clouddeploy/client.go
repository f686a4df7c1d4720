package clouddeploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	deploy "cloud.google.com/go/deploy/apiv1"
	"cloud.google.com/go/deploy/apiv1/deploypb"
	"google.golang.org/api/iterator"
)

// ClientInterface defines the Cloud Deploy operations the collector needs
type ClientInterface interface {
	FetchReleases(ctx context.Context, startDate, endDate time.Time) ([]*deploypb.Release, error)
	FetchRollouts(ctx context.Context, releaseName string) ([]*deploypb.Rollout, error)
	Close() error
}

// Client wraps Google Cloud Deploy operations for one project/region
type Client struct {
	deployClient *deploy.CloudDeployClient
	projectID    string
	region       string
	pipeline     string
}

// NewClient creates a new Client with Application Default Credentials.
// An empty pipeline matches every delivery pipeline in the region.
func NewClient(ctx context.Context, projectID, region, pipeline string) (*Client, error) {
	deployClient, err := deploy.NewCloudDeployClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create deploy client: %w", err)
	}

	return &Client{
		deployClient: deployClient,
		projectID:    projectID,
		region:       region,
		pipeline:     pipeline,
	}, nil
}

// Close cleans up the client connection
func (c *Client) Close() error {
	return c.deployClient.Close()
}

// FetchReleases gets releases created inside the date window from the
// configured delivery pipelines
func (c *Client) FetchReleases(ctx context.Context, startDate, endDate time.Time) ([]*deploypb.Release, error) {
	pipelines, err := c.listPipelines(ctx)
	if err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		return nil, fmt.Errorf("no delivery pipelines found in %s/%s", c.projectID, c.region)
	}

	var allReleases []*deploypb.Release
	for _, pipelineName := range pipelines {
		releaseIt := c.deployClient.ListReleases(ctx, &deploypb.ListReleasesRequest{
			Parent: pipelineName,
		})

		for {
			release, err := releaseIt.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to list releases for pipeline %s: %w", pipelineName, err)
			}

			createTime := release.CreateTime.AsTime()
			if createTime.Before(startDate) || createTime.After(endDate) {
				continue
			}

			allReleases = append(allReleases, release)
		}
	}

	return allReleases, nil
}

// FetchRollouts gets the rollouts of one release
func (c *Client) FetchRollouts(ctx context.Context, releaseName string) ([]*deploypb.Rollout, error) {
	rolloutIt := c.deployClient.ListRollouts(ctx, &deploypb.ListRolloutsRequest{
		Parent: releaseName,
	})

	var rollouts []*deploypb.Rollout
	for {
		rollout, err := rolloutIt.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list rollouts for release %s: %w", releaseName, err)
		}
		rollouts = append(rollouts, rollout)
	}

	return rollouts, nil
}

func (c *Client) listPipelines(ctx context.Context) ([]string, error) {
	parent := fmt.Sprintf("projects/%s/locations/%s", c.projectID, c.region)

	pipelineIt := c.deployClient.ListDeliveryPipelines(ctx, &deploypb.ListDeliveryPipelinesRequest{
		Parent: parent,
	})

	var pipelines []string
	for {
		pipeline, err := pipelineIt.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list delivery pipelines: %w", err)
		}

		if c.pipeline == "" || strings.HasSuffix(pipeline.Name, "/deliveryPipelines/"+c.pipeline) {
			pipelines = append(pipelines, pipeline.Name)
		}
	}

	return pipelines, nil
}
