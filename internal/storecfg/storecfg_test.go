package storecfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stores.json5")
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
	return path
}

const testConfig = `{
	// stable roster, dynamic ids are discovered at runtime
	stores: [
		{code: "soho", name: "Soho Branch", deliveroo_org_id: "org1", deliveroo_branch_id: "b1"},
		{code: "china-town", name: "China Town", panda_merchant_id: "m42"},
		{code: "camden", name: "Camden Lock"},
	],
}`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)
	require.Len(t, cfg.Stores, 3)
	require.Equal(t, "org1", cfg.Stores[0].DeliverooOrgID)
	require.Equal(t, "m42", cfg.Stores[1].PandaMerchantID)
}

func TestLoadEmptyRoster(t *testing.T) {
	_, err := Load(writeConfig(t, `{stores: []}`))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.Error(t, err)
}

func TestResolveAll(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	stores, unknown := cfg.Resolve("all")
	require.Len(t, stores, 3)
	require.Empty(t, unknown)

	stores, unknown = cfg.Resolve("")
	require.Len(t, stores, 3)
	require.Empty(t, unknown)
}

func TestResolveSelectors(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	stores, unknown := cfg.Resolve("soho")
	require.Len(t, stores, 1)
	require.Equal(t, "soho", stores[0].Code)
	require.Empty(t, unknown)

	// comma list, mixed codes and display names, case-insensitive
	stores, unknown = cfg.Resolve("SOHO, China Town")
	require.Len(t, stores, 2)
	require.Empty(t, unknown)

	// duplicates collapse
	stores, _ = cfg.Resolve("soho,soho,Soho Branch")
	require.Len(t, stores, 1)
}

func TestResolveUnknown(t *testing.T) {
	cfg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	stores, unknown := cfg.Resolve("soho,typo-store")
	require.Len(t, stores, 1)
	require.Equal(t, []string{"typo-store"}, unknown)
}
