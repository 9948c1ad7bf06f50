// Package command defines the text commands a trainer can type, grouped by
// whether they apply while roaming, while battling, or always.
package command

// Categories decide where a command is accepted.
const (
	CategoryRoam   = "roam"
	CategoryBattle = "battle"
	CategorySystem = "system"
)

// Handler identifiers dispatched by frontends.
const (
	HandlerExplore = "explore"
	HandlerStatus  = "status"
	HandlerRecord  = "record"
	HandlerTables  = "tables"
	HandlerHelp    = "help"
	HandlerQuit    = "quit"
	// HandlerInput forwards the command name as a combat input event.
	HandlerInput = "input"
	HandlerFight = "fight"
	HandlerRun   = "run"
	// HandlerMove selects a move by its 1-based slot, e.g. "move 2" or "2".
	HandlerMove = "move"
)

// Command is one trainer-invocable command.
type Command struct {
	Name     string
	Aliases  []string
	Help     string
	Category string
	Handler  string
}

// BuiltinCommands returns every command understood by the text frontends.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "explore", Aliases: []string{"x", "walk"}, Help: "Walk through the tall grass until something appears", Category: CategoryRoam, Handler: HandlerExplore},
		{Name: "record", Aliases: []string{"history"}, Help: "Show your recent battles", Category: CategoryRoam, Handler: HandlerRecord},
		{Name: "tables", Aliases: []string{"areas"}, Help: "List the areas you can explore", Category: CategoryRoam, Handler: HandlerTables},

		{Name: "up", Aliases: []string{"w"}, Help: "Move the menu cursor up", Category: CategoryBattle, Handler: HandlerInput},
		{Name: "down", Aliases: []string{"s"}, Help: "Move the menu cursor down", Category: CategoryBattle, Handler: HandlerInput},
		{Name: "left", Aliases: []string{"a"}, Help: "Move the menu cursor left", Category: CategoryBattle, Handler: HandlerInput},
		{Name: "right", Aliases: []string{"d"}, Help: "Move the menu cursor right", Category: CategoryBattle, Handler: HandlerInput},
		{Name: "confirm", Aliases: []string{"z", "enter"}, Help: "Select the highlighted entry", Category: CategoryBattle, Handler: HandlerInput},
		{Name: "fight", Aliases: []string{"f"}, Help: "Open the move menu", Category: CategoryBattle, Handler: HandlerFight},
		{Name: "run", Aliases: []string{"r"}, Help: "Try to run (you can't escape wild battles yet)", Category: CategoryBattle, Handler: HandlerRun},
		{Name: "move", Aliases: []string{"m", "use"}, Help: "Use the move in slot 1-4", Category: CategoryBattle, Handler: HandlerMove},

		{Name: "status", Aliases: []string{"st"}, Help: "Show your trainer card", Category: CategorySystem, Handler: HandlerStatus},
		{Name: "help", Aliases: []string{"?"}, Help: "List commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Help: "Leave the game", Category: CategorySystem, Handler: HandlerQuit},
	}
}
