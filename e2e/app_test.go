package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite provides a test suite for end-to-end tests
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL)
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest runs after each test
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login() {
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	err = suite.page.Locator("input[name=username]").Fill("testuser")
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill("testpass123")
	require.NoError(suite.T(), err, "failed to fill password")

	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	err = suite.expect.Locator(suite.page.Locator(".expenses-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not reach expenses page after login")
}

func (suite *E2ETestSuite) TestLoginRejectsBadPassword() {
	err := suite.page.Locator("input[name=username]").Fill("testuser")
	require.NoError(suite.T(), err)
	err = suite.page.Locator("input[name=password]").Fill("wrongpass")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator(".flash-danger")).ToContainText("Invalid username or password")
	require.NoError(suite.T(), err, "expected generic failure flash")
}

func (suite *E2ETestSuite) TestRegisterThenLoginFlow() {
	_, err := suite.page.Goto(appURL + "/register")
	require.NoError(suite.T(), err)

	err = suite.page.Locator("input[name=username]").Fill("newuser")
	require.NoError(suite.T(), err)
	err = suite.page.Locator("input[name=password]").Fill("newpass123")
	require.NoError(suite.T(), err)
	err = suite.page.Locator("input[name=preferred_name]").Fill("Newbie")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".register-btn").Click()
	require.NoError(suite.T(), err)

	// Registration lands on the login page, not an authenticated session
	err = suite.expect.Locator(suite.page.Locator(".flash-success")).ToContainText("Registered successfully")
	require.NoError(suite.T(), err)

	err = suite.page.Locator("input[name=username]").Fill("newuser")
	require.NoError(suite.T(), err)
	err = suite.page.Locator("input[name=password]").Fill("newpass123")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator("h1")).ToContainText("Welcome, Newbie")
	require.NoError(suite.T(), err)
}

func (suite *E2ETestSuite) TestAddExpenseFlow() {
	suite.login()

	// The add form only offers existing categories and descriptions
	_, err := suite.page.Locator(".add-form select[name=category]").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{"Food"},
	})
	require.NoError(suite.T(), err, "failed to select category")

	_, err = suite.page.Locator(".add-form select[name=description]").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{"Lunch"},
	})
	require.NoError(suite.T(), err, "failed to select description")

	err = suite.page.Locator(".add-form input[name=amount]").Fill("12.50")
	require.NoError(suite.T(), err, "failed to fill amount")

	err = suite.page.Locator(".add-form input[name=date]").Fill("2024-01-15")
	require.NoError(suite.T(), err, "failed to fill date")

	err = suite.page.Locator(".add-btn").Click()
	require.NoError(suite.T(), err, "failed to submit expense")

	err = suite.expect.Locator(suite.page.Locator(".flash-success")).ToContainText("Expense added successfully")
	require.NoError(suite.T(), err, "success flash not shown")

	err = suite.expect.Locator(suite.page.Locator(".expense-list")).ToContainText("12.50")
	require.NoError(suite.T(), err, "new expense row not visible")
}

func (suite *E2ETestSuite) TestFilterByCategory() {
	suite.login()

	_, err := suite.page.Locator(".filter-form select[name=category]").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{"Transport"},
	})
	require.NoError(suite.T(), err)

	err = suite.page.Locator(".filter-form button").Click()
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator(".expense-category").First()).ToHaveText("Transport")
	require.NoError(suite.T(), err, "filtered list should only show Transport records")
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
