package logger

import "go.uber.org/zap"

// New builds a zap logger: human-readable console output in development,
// JSON in every other environment.
func New(env string) *zap.Logger {
	if env == "development" {
		log, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log
	}
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return log
}
