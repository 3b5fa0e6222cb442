//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/fivetwenty-io/minthcm-client/pkg/mintclient"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// WorkflowsTestSuite runs record workflows against a live MintHCM instance
// configured through MINTHCM_BASE_URL, MINTHCM_CLIENT_ID and
// MINTHCM_CLIENT_SECRET.
type WorkflowsTestSuite struct {
	suite.Suite

	client    minthcm.Client
	tokenPath string
	module    string
}

// SetupSuite creates the client.
func (suite *WorkflowsTestSuite) SetupSuite() {
	config, err := mintclient.LoadConfig(os.Getenv("MINTHCM_CONFIG"))
	suite.Require().NoError(err)

	if config.BaseURL == "" {
		suite.T().Skip("MINTHCM_BASE_URL not set, skipping integration tests")
	}

	suite.module = os.Getenv("MINTHCM_TEST_MODULE")
	if suite.module == "" {
		suite.module = "Certificates"
	}

	suite.tokenPath = filepath.Join(suite.T().TempDir(), "AccessToken.json")
	config.TokenPath = suite.tokenPath
	config.LogoutOnExit = true

	suite.client, err = mintclient.New(context.Background(), config)
	suite.Require().NoError(err)
}

// TearDownSuite logs out.
func (suite *WorkflowsTestSuite) TearDownSuite() {
	if suite.client != nil {
		suite.NoError(suite.client.Close())
	}
}

func (suite *WorkflowsTestSuite) TestMetadata() {
	ctx := context.Background()

	modules, err := suite.client.GetModulesMetadata(ctx)
	suite.Require().NoError(err)
	suite.Contains(modules, "data")

	fields, err := suite.client.Module(suite.module).Fields(ctx)
	suite.Require().NoError(err)
	suite.Contains(fields, "data")
}

func (suite *WorkflowsTestSuite) TestRecordLifecycle() {
	ctx := context.Background()
	module := suite.client.Module(suite.module)
	name := fmt.Sprintf("integration-%d", time.Now().Unix())

	created, err := module.Create(ctx, minthcm.Attributes{"name": name})
	suite.Require().NoError(err)

	var record struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	suite.Require().NoError(created.Decode(&record))
	suite.Require().NotEmpty(record.Data.ID)

	found, err := module.Query(ctx, minthcm.NewQueryParams().
		WithFields("name").
		Where("name", name))
	suite.Require().NoError(err)
	suite.Contains(found, "data")

	_, err = module.Update(ctx, record.Data.ID, minthcm.Attributes{"description": "updated"})
	suite.Require().NoError(err)

	_, err = module.Delete(ctx, record.Data.ID)
	suite.Require().NoError(err)
}

func (suite *WorkflowsTestSuite) TestUnknownModule() {
	_, err := suite.client.Module("NoSuchModule").GetAllRecords(context.Background())
	suite.Require().Error(err)
	suite.True(minthcm.IsRequestError(err))
}

func TestWorkflowsTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowsTestSuite))
}
