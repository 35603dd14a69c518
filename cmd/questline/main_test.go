package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/questline/engine/save"
)

const villageDir = "../../content/village"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	configFile = ""

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	output, err := execute(t, "", "--help")
	require.NoError(t, err)

	for _, sub := range []string{"play", "validate", "schema"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	_, err := execute(t, "", "--config=/etc/questline.yaml", "--help")
	require.NoError(t, err)
	assert.Equal(t, "/etc/questline.yaml", configFile)
}

func TestPlay_PlainMode(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "inv.json")
	output, err := execute(t,
		"approach old chest\nopen\ninventory equipment\n/save\n/quit\n",
		"play", "--plain", "--seed=7", "--log-level=error", "--save-path="+savePath, villageDir,
	)
	require.NoError(t, err)

	assert.Contains(t, output, "Hollowmere by Questline")
	assert.Contains(t, output, "You approach the Old Chest.")
	assert.Contains(t, output, "Collected: Iron Sword.")
	assert.Contains(t, output, "Equipment: [0] Iron Sword")
	assert.Contains(t, output, "Inventory saved to "+savePath)

	doc, err := save.ReadFile(savePath)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.EquipmentSlots, 1)
	assert.Equal(t, "sword", doc.EquipmentSlots[0].ItemID)
}

func TestPlay_RestoresSavedInventory(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "inv.json")
	require.NoError(t, os.WriteFile(savePath, []byte(`{
  "consumableSlots": [{"slotIndex": 2, "itemId": "bread"}],
  "equipmentSlots": [],
  "equippedWeaponId": "",
  "equippedArmorId": ""
}`), 0o644))

	output, err := execute(t, "inventory\n/quit\n",
		"play", "--plain", "--log-level=error", "--save-path="+savePath, villageDir)
	require.NoError(t, err)
	assert.Contains(t, output, "Consumables: [2] Bread")
}

func TestPlay_Script(t *testing.T) {
	script := filepath.Join(t.TempDir(), "walkthrough.txt")
	require.NoError(t, os.WriteFile(script, []byte("# talk to the merchant\napproach merchant\ne\n"), 0o644))

	output, err := execute(t, "", "play", "--script="+script, "--seed=3", "--log-level=error",
		"--save-path="+filepath.Join(t.TempDir(), "inv.json"), villageDir)
	require.NoError(t, err)
	assert.Contains(t, output, "> approach merchant\n")
	assert.Contains(t, output, `Merchant: "`)
}

func TestPlay_MissingContent(t *testing.T) {
	_, err := execute(t, "", "play", "--plain", "--log-level=error", filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
}

func TestPlay_BadConfig(t *testing.T) {
	_, err := execute(t, "", "play", "--plain", "--capacity=0", villageDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity must be positive")
}

func TestValidate_Village(t *testing.T) {
	output, err := execute(t, "", "validate", villageDir)
	require.NoError(t, err)
	assert.Contains(t, output, "Hollowmere: 3 dialogue(s), 5 item(s), 6 interactable(s), 0 warning(s)")
}

func TestValidate_ReportsErrors(t *testing.T) {
	output, err := execute(t, "", "validate", "../../loader/testdata/bad_reward")
	require.Error(t, err)
	assert.Contains(t, output, `error: dialogue "d" line 1 rewards undefined item "ghost_item"`)
	assert.Contains(t, output, `error: chest "c" references undefined item "nothing_here"`)
}

func TestSchema_Stdout(t *testing.T) {
	output, err := execute(t, "", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &schema))
	assert.Equal(t, save.SchemaID, schema["$id"])
	assert.Contains(t, output, "consumableSlots")
}

func TestSchema_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.schema.json")
	output, err := execute(t, "", "schema", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Schema written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "equippedWeaponId")
}
