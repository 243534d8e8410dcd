/*
Package safety screens text before players see it.

PatternModerator implements ports.Moderator with two layers: regular
expression rules (blocked and warning categories, loadable from YAML) and a
risk score derived from the content type and the campaign's rating and theme.
Blocked text is withheld entirely; warning text has its harshest terms
softened through the replacement table.

The package also provides input sanitization and middlewares that run the
moderator over combat logs and narration streams.
*/
package safety
