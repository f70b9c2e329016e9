// Package restyle sends local images through the BFL generative image API
// and saves the restyled results.
//
// For each image the Pipeline encodes the file as base64, submits it with a
// prompt, polls the job until it is Ready, fails, or runs out of polls, and
// downloads the result into the output directory as
// "<base>_stylized_<unix-ts><ext>". A failed attempt is retried from scratch
// after a random wait, up to Config.MaxAttempts attempts in total.
//
// Batch runs the pipeline over the images found by Discover and returns a
// Summary. One image failing never stops the batch.
//
// Prompts come from presets: the built-in presets.yml plus an optional user
// yaml file with the same layout.
package restyle
