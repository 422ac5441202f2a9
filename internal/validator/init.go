package validator

import (
	"ctchen222/tictactoe-engine/internal/game"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Custom tags for the game enums
	mustRegister("difficulty", func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v >= int64(game.Easy) && v <= int64(game.Hard)
	})
	mustRegister("gametype", func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v >= int64(game.HumanVsHuman) && v <= int64(game.ComputerVsComputer)
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func GetValidator() *validator.Validate {
	return validate
}

// Struct validates the exported fields of s against their validate tags.
func Struct(s any) error {
	return validate.Struct(s)
}
