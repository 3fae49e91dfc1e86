// Package spotify extracts playlist metadata from Spotify's public
// playlist embed pages.
//
// # Embed Page Parsing
//
// The embed page (https://open.spotify.com/embed/playlist/<id>) carries its
// state as JSON inside a <script id="__NEXT_DATA__"> element. Parser finds
// that element, walks props.pageProps.state.data.entity.trackList and keeps
// the tracks whose audioPreview is not null:
//
//	parser := spotify.NewParser(pathConfig, trackConfig)
//	pl, err := parser.ParseEmbedPage(id, htmlContent)
//	if errors.Is(err, spotify.ErrTrackListNotFound) {
//	    // page layout changed or playlist is empty
//	}
//
// # Identifiers
//
// ResolveIdentifier accepts playlist URLs, spotify: URIs or bare
// identifiers. EmbedURL builds the page URL for an identifier.
package spotify
