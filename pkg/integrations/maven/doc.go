// Package maven resolves catalog coordinates against Maven Central.
//
// # Usage
//
//	client, err := maven.NewClient(24 * time.Hour)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	info, err := client.Resolve(ctx, "io.quarkiverse.amazonservices:quarkus-amazon-s3::jar:2.4.0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(info.Coordinate(), info.Timestamp)
//
// # Coordinates
//
// The extension registry publishes coordinates as "groupId:artifactId::jar:version".
// The short "groupId:artifactId:version" form and Maven package URLs
// ("pkg:maven/io.quarkus/quarkus-rest@3.15.0") are accepted too.
//
// # Timestamps
//
// The release time comes from the Solr "gav" core, which indexes every
// version rather than only the latest. A version Central has not indexed
// resolves with a nil [Info.Timestamp].
//
// # Caching
//
// Search responses are cached on disk for the TTL given to [NewClient].
package maven
